package catalog

import "fmt"

// CoverSize selects one of the cover service's renditions.
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// CoverURL returns the image URL for a cover id, or the placeholder image
// when the book has no cover.
func (c *Client) CoverURL(coverID int, size CoverSize) string {
	if coverID <= 0 {
		return c.placeholder
	}
	switch size {
	case CoverSmall, CoverMedium, CoverLarge:
	default:
		size = CoverMedium
	}
	return fmt.Sprintf("%s/b/id/%d-%s.jpg", c.coversURL, coverID, size)
}

// Placeholder is the image shown for books without a cover.
func (c *Client) Placeholder() string { return c.placeholder }

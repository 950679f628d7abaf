// Path: internal/domain/models.go
package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// UnknownText is the sentinel rendered for any missing display string.
	UnknownText = "Unknown"
	// UnknownTitle is used when the catalog omits a title.
	UnknownTitle = "Unknown Title"
)

// --- Custom Type for the boolean availability flags ---

// FlexibleBool is a custom boolean type that can be unmarshaled from
// a JSON boolean (true/false) or a JSON string ("true"/"false").
type FlexibleBool bool

// UnmarshalJSON implements the json.Unmarshaler interface for FlexibleBool.
func (fb *FlexibleBool) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*fb = false
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*fb = FlexibleBool(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsedBool, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*fb = FlexibleBool(parsedBool)
	return nil
}

// --- Year: an integer year or the literal "Unknown" ---

var yearPattern = regexp.MustCompile(`\d{4}`)

// Year is a publication year. The zero value means unknown and is rendered
// as "Unknown" both in templates and in JSON.
type Year int

// ParseYear pulls the first four-digit run out of free-form date text such as
// "August 1, 1965". It returns 0 when there is none.
func ParseYear(s string) Year {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return Year(n)
}

// Known reports whether the year carries a real value.
func (y Year) Known() bool { return y > 0 }

func (y Year) String() string {
	if !y.Known() {
		return UnknownText
	}
	return strconv.Itoa(int(y))
}

// MarshalJSON emits the number, or the string "Unknown" for the zero value.
func (y Year) MarshalJSON() ([]byte, error) {
	if !y.Known() {
		return json.Marshal(UnknownText)
	}
	return []byte(strconv.Itoa(int(y))), nil
}

// UnmarshalJSON accepts a JSON number, a date string, "Unknown" or null.
func (y *Year) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*y = 0
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 {
			n = 0
		}
		*y = Year(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*y = ParseYear(s)
		return nil
	}

	return fmt.Errorf("year field is not a recognizable number or string")
}

// --- Text: a description that is either a string or {"type":..,"value":..} ---

// Text is free text that the catalog encodes either as a bare string or as a
// typed object carrying the string in "value".
type Text string

// UnmarshalJSON implements the json.Unmarshaler interface for Text.
func (t *Text) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}

	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &typed); err == nil {
		*t = Text(typed.Value)
		return nil
	}

	return fmt.Errorf("text field is neither a string nor a typed value")
}

// BookRecord is one normalized catalog entry. Every field is defaulted when it
// is built, so nothing downstream needs to check for missing data.
type BookRecord struct {
	Key              string   `json:"key" bson:"_id"`
	Title            string   `json:"title" bson:"title"`
	CoverID          int      `json:"coverId" bson:"coverId"`
	FirstPublishYear Year     `json:"firstPublishYear" bson:"firstPublishYear"`
	AuthorName       string   `json:"authorName" bson:"authorName"`
	EditionCount     int      `json:"editionCount" bson:"editionCount"`
	HasFulltext      bool     `json:"hasFulltext" bson:"hasFulltext"`
	PublicScan       bool     `json:"publicScan" bson:"publicScan"`
	IA               []string `json:"ia" bson:"ia"`
}

// Authors splits the joined display string back into individual names.
func (b BookRecord) Authors() []string {
	if b.AuthorName == "" || b.AuthorName == UnknownText {
		return nil
	}
	parts := strings.Split(b.AuthorName, AuthorSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AuthorSeparator joins multiple author names into BookRecord.AuthorName.
const AuthorSeparator = ", "

// AvailableOnline reports whether the catalog lists a readable copy.
func (b BookRecord) AvailableOnline() bool {
	return b.HasFulltext || b.PublicScan
}

// WorkDetail is the subset of a work document used by the detail view.
type WorkDetail struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	Description      Text     `json:"description"`
	Subjects         []string `json:"subjects"`
	Covers           []int    `json:"covers"`
	FirstPublishDate string   `json:"first_publish_date"`
}

// BookView is what the detail page renders: the work detail merged over the
// summary record the user navigated from.
type BookView struct {
	BookRecord
	Description string   `json:"description"`
	Subjects    []string `json:"subjects"`
	CoverURL    string   `json:"coverUrl"`
}

// FetchParams reproduces a highlighted subset through the catalog client.
type FetchParams struct {
	Category   string `json:"category" bson:"category"`
	SearchTerm string `json:"searchTerm" bson:"searchTerm"`
	Limit      int    `json:"limit" bson:"limit"`
}

// Highlight is a promotional card derived from probe queries.
type Highlight struct {
	ID          string      `json:"id" bson:"id"`
	Title       string      `json:"title" bson:"title"`
	Description string      `json:"description" bson:"description"`
	Gradient    string      `json:"gradient" bson:"gradient"`
	FetchParams FetchParams `json:"fetchParams" bson:"fetchParams"`
}

// HighlightSnapshot is the last computed set of highlights, stored so a
// restarted server can render the shelf before the first refresh finishes.
type HighlightSnapshot struct {
	ID         string      `bson:"_id"` // A constant key, e.g., "highlights"
	Highlights []Highlight `bson:"highlights"`
	UpdatedAt  time.Time   `bson:"updatedAt"`
}

// ShelfItem is one card on a shelf: either a StatItem or a BookItem.
type ShelfItem interface {
	shelfItem()
}

// StatItem renders a highlight card.
type StatItem struct {
	Highlight Highlight
}

// BookItem renders a book cover card.
type BookItem struct {
	Book     BookRecord
	CoverURL string
}

func (StatItem) shelfItem() {}
func (BookItem) shelfItem() {}

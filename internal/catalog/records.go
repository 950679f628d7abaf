package catalog

import (
	"strings"

	"github.com/google/uuid"

	"bookshelf/internal/domain"
)

// syntheticPrefix marks keys derived locally for records the catalog sent
// without one. They are never valid work keys.
const syntheticPrefix = "/synthetic/"

type subjectResponse struct {
	WorkCount int           `json:"work_count"`
	Works     []subjectWork `json:"works"`
}

type subjectWork struct {
	Key              string      `json:"key"`
	Title            string      `json:"title"`
	CoverID          int         `json:"cover_id"`
	FirstPublishYear domain.Year `json:"first_publish_year"`
	Authors          []struct {
		Name string `json:"name"`
	} `json:"authors"`
	EditionCount int                 `json:"edition_count"`
	HasFulltext  domain.FlexibleBool `json:"has_fulltext"`
	PublicScan   domain.FlexibleBool `json:"public_scan"`
	IA           []string            `json:"ia"`
}

func (w subjectWork) record() domain.BookRecord {
	names := make([]string, 0, len(w.Authors))
	for _, a := range w.Authors {
		names = append(names, a.Name)
	}
	return newRecord(w.Key, w.Title, w.CoverID, w.FirstPublishYear, names,
		w.EditionCount, bool(w.HasFulltext), bool(w.PublicScan), w.IA)
}

type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string              `json:"key"`
	Title            string              `json:"title"`
	CoverI           int                 `json:"cover_i"`
	FirstPublishYear domain.Year         `json:"first_publish_year"`
	AuthorName       []string            `json:"author_name"`
	EditionCount     int                 `json:"edition_count"`
	HasFulltext      domain.FlexibleBool `json:"has_fulltext"`
	PublicScanB      domain.FlexibleBool `json:"public_scan_b"`
	IA               []string            `json:"ia"`
}

func (d searchDoc) record() domain.BookRecord {
	return newRecord(d.Key, d.Title, d.CoverI, d.FirstPublishYear, d.AuthorName,
		d.EditionCount, bool(d.HasFulltext), bool(d.PublicScanB), d.IA)
}

// newRecord builds a fully defaulted BookRecord.
func newRecord(key, title string, coverID int, year domain.Year, authors []string, editions int, fulltext, scan bool, ia []string) domain.BookRecord {
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.UnknownTitle
	}

	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	author := domain.UnknownText
	if len(names) > 0 {
		author = strings.Join(names, domain.AuthorSeparator)
	}

	if coverID < 0 {
		coverID = 0
	}
	if year < 0 {
		year = 0
	}
	if editions < 0 {
		editions = 0
	}
	if ia == nil {
		ia = []string{}
	}

	key = strings.TrimSpace(key)
	if key == "" {
		key = SyntheticKey(title, author, year)
	}

	return domain.BookRecord{
		Key:              key,
		Title:            title,
		CoverID:          coverID,
		FirstPublishYear: year,
		AuthorName:       author,
		EditionCount:     editions,
		HasFulltext:      fulltext,
		PublicScan:       scan,
		IA:               ia,
	}
}

// SyntheticKey derives a stable identifier from a record's display fields.
// The same title, author and year always give the same key.
func SyntheticKey(title, author string, year domain.Year) string {
	name := strings.Join([]string{title, author, year.String()}, "|")
	return syntheticPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// IsSynthetic reports whether key was derived by SyntheticKey.
func IsSynthetic(key string) bool {
	return strings.HasPrefix(key, syntheticPrefix)
}

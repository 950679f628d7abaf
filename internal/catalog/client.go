// Path: internal/catalog/client.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"bookshelf/internal/config"
	"bookshelf/internal/domain"
)

var (
	// ErrInvalidKey is returned for detail lookups whose key is not a work key.
	ErrInvalidKey = errors.New("catalog: invalid work key")
	// ErrNotFound is returned when the catalog answers 404.
	ErrNotFound = errors.New("catalog: not found")
	// ErrUpstream is returned for any other non-success status.
	ErrUpstream = errors.New("catalog: upstream error")

	errDecode = errors.New("catalog: malformed response")
)

// workKeyPattern matches Open Library work keys such as /works/OL45804W.
var workKeyPattern = regexp.MustCompile(`^/works/OL[0-9A-Za-z]+$`)

// Result holds the books returned from a single listing call.
type Result struct {
	Books      []domain.BookRecord
	TotalFound int
}

// Client is a client for the Open Library catalog API.
type Client struct {
	client          *http.Client
	limiter         *rate.Limiter
	baseURL         string
	coversURL       string
	placeholder     string
	defaultCategory string
	defaultLimit    int
	logger          *zap.Logger
	metrics         *clientMetrics
	works           singleflight.Group
}

// NewClient creates and configures a new Client.
func NewClient(cfg config.CatalogConfig, logger *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	defaultCategory := strings.ToLower(strings.TrimSpace(cfg.DefaultCategory))
	if defaultCategory == "" {
		defaultCategory = "science"
	}

	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(
			rate.Limit(cfg.RequestsPerSecond),
			cfg.BurstLimit,
		),
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		coversURL:       strings.TrimRight(cfg.CoversURL, "/"),
		placeholder:     cfg.PlaceholderImage,
		defaultCategory: defaultCategory,
		defaultLimit:    defaultLimit,
		logger:          logger.Named("catalog"),
		metrics:         newClientMetrics(),
	}
}

// DefaultCategory is the category used when none is given.
func (c *Client) DefaultCategory() string { return c.defaultCategory }

// FetchBooks lists books for a category, or for a free-text search when
// searchTerm is non-blank.
//
// For search, TotalFound is the server-reported match count. For category
// listings the subject endpoint has no reliable total, so TotalFound is the
// number of records actually returned; callers that page through a category
// must fetch it in bulk.
//
// Failures of any kind are logged and yield an empty Result; FetchBooks never
// returns an error.
func (c *Client) FetchBooks(ctx context.Context, category, searchTerm string, limit, offset int) Result {
	if limit <= 0 {
		limit = c.defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	term := strings.TrimSpace(searchTerm)
	endpoint := "subject"
	if term != "" {
		endpoint = "search"
	}

	start := time.Now()
	var (
		res Result
		err error
	)
	if term != "" {
		res, err = c.search(ctx, term, limit, offset)
	} else {
		res, err = c.subject(ctx, c.normalizeCategory(category), limit, offset)
	}
	c.metrics.record(ctx, endpoint, time.Since(start), err)

	if err != nil {
		c.logger.Warn("catalog fetch failed",
			zap.String("endpoint", endpoint),
			zap.String("category", category),
			zap.String("q", term),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
			zap.Error(err),
		)
		return Result{Books: []domain.BookRecord{}}
	}

	c.logger.Debug("catalog fetch",
		zap.String("endpoint", endpoint),
		zap.Int("books", len(res.Books)),
		zap.Int("total", res.TotalFound),
	)
	return res
}

// FetchWork loads the detail document for a single work. Unlike FetchBooks it
// reports failures to the caller. Concurrent calls for the same key share one
// upstream request, which is not cancelled by any single caller.
func (c *Client) FetchWork(ctx context.Context, key string) (*domain.WorkDetail, error) {
	if !ValidWorkKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	v, err, shared := c.works.Do(key, func() (any, error) {
		return c.fetchWork(context.WithoutCancel(ctx), key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("work fetch shared", zap.String("key", key))
	}
	work := *v.(*domain.WorkDetail)
	return &work, nil
}

func (c *Client) fetchWork(ctx context.Context, key string) (*domain.WorkDetail, error) {
	start := time.Now()
	var work domain.WorkDetail
	err := c.getJSON(ctx, c.baseURL+key+".json", &work)
	c.metrics.record(ctx, "work", time.Since(start), err)
	if err != nil {
		c.logger.Warn("work fetch failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	if work.Key == "" {
		work.Key = key
	}
	return &work, nil
}

// ValidWorkKey reports whether key looks like /works/OL….
func ValidWorkKey(key string) bool {
	return workKeyPattern.MatchString(key)
}

func (c *Client) normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return c.defaultCategory
	}
	return strings.ReplaceAll(category, " ", "_")
}

func (c *Client) subject(ctx context.Context, category string, limit, offset int) (Result, error) {
	u := fmt.Sprintf("%s/subjects/%s.json?%s", c.baseURL, url.PathEscape(category), pageQuery(nil, limit, offset).Encode())

	var resp subjectResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return Result{}, err
	}

	books := make([]domain.BookRecord, 0, min(len(resp.Works), limit))
	for _, w := range resp.Works {
		if len(books) == limit {
			break
		}
		books = append(books, w.record())
	}
	// The subject endpoint's work_count is not trustworthy for paging.
	return Result{Books: books, TotalFound: len(books)}, nil
}

func (c *Client) search(ctx context.Context, term string, limit, offset int) (Result, error) {
	q := url.Values{}
	q.Set("q", term)
	u := fmt.Sprintf("%s/search.json?%s", c.baseURL, pageQuery(q, limit, offset).Encode())

	var resp searchResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return Result{}, err
	}

	books := make([]domain.BookRecord, 0, min(len(resp.Docs), limit))
	for _, d := range resp.Docs {
		if len(books) == limit {
			break
		}
		books = append(books, d.record())
	}
	total := max(resp.NumFound, len(books))
	return Result{Books: books, TotalFound: total}, nil
}

func pageQuery(q url.Values, limit, offset int) url.Values {
	if q == nil {
		q = url.Values{}
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}

// getJSON fetches a URL and decodes the JSON body into out.
// It respects the rate limit.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, u)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: unexpected status code %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", errDecode, err)
	}
	return nil
}

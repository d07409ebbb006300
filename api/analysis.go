package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aluiziolira/smartmarket/models"
)

// Analysis service endpoints. The *_with_analysis variants also return an Analysis block.
const (
	SearchPath             = "/search"
	SearchWithAnalysisPath = "/search_cached_with_analysis"
	FromURLPath            = "/from-url"
	FromURLWithAnalysis    = "/from-url_with_analysis"
)

// Pacing is the optional crawl pacing forwarded verbatim to the analysis service.
type Pacing struct {
	MaxPages     int     `json:"max_pages"`
	PerPageDelay float64 `json:"per_page_delay"`
	DetailDelay  float64 `json:"detail_delay"`
}

// SearchRequest carries either a keyword or a listing URL.
type SearchRequest struct {
	Keyword string `json:"keyword,omitempty"`
	URL     string `json:"url,omitempty"`
	*Pacing
}

// AnalysisClient talks to the scraping/analysis service.
type AnalysisClient struct {
	svc          *service
	withAnalysis bool
}

// NewAnalysisClient builds a client for baseURL. withAnalysis selects the endpoint profile.
func NewAnalysisClient(baseURL string, timeout time.Duration, withAnalysis bool, opts ...Option) *AnalysisClient {
	return &AnalysisClient{
		svc:          newService("analysis", baseURL, timeout, opts),
		withAnalysis: withAnalysis,
	}
}

// Endpoint returns the path used for a request in URL or keyword mode.
func (c *AnalysisClient) Endpoint(urlMode bool) string {
	switch {
	case urlMode && c.withAnalysis:
		return FromURLWithAnalysis
	case urlMode:
		return FromURLPath
	case c.withAnalysis:
		return SearchWithAnalysisPath
	default:
		return SearchPath
	}
}

// Search runs a scrape. Any non-2xx answer is returned as an error.
func (c *AnalysisClient) Search(ctx context.Context, req SearchRequest) (*models.SearchResult, error) {
	if req.Keyword == "" && req.URL == "" {
		return nil, fmt.Errorf("search request needs a keyword or a url")
	}

	path := c.Endpoint(req.URL != "")
	resp, err := c.svc.do(c.svc.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req), http.MethodPost, path)
	if err != nil {
		return nil, err
	}

	var out models.SearchResult
	if err := decode(resp, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if out.Items == nil {
		out.Items = []models.Item{}
	}
	return &out, nil
}

// Package search sequences a product search across the analysis and
// persistence services and holds the resulting dataset.
package search

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aluiziolira/smartmarket/api"
	"github.com/aluiziolira/smartmarket/config"
	"github.com/aluiziolira/smartmarket/models"
	"github.com/aluiziolira/smartmarket/parser"
)

// DefaultTimeout bounds a whole run when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// AnalysisService scrapes and analyses a keyword or listing URL.
type AnalysisService interface {
	Search(ctx context.Context, req api.SearchRequest) (*models.SearchResult, error)
}

// PersistenceService stores scraped payloads and lists what has been stored.
type PersistenceService interface {
	Mirror(ctx context.Context, payload *models.SearchResult) error
	ListProducts(ctx context.Context, keyword, token string) (*models.ProductPage, error)
}

// TokenSource supplies the current bearer token, "" when anonymous.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Request is one search trigger.
type Request struct {
	Source  string
	URLMode bool
}

// Outcome describes how a run ended.
type Outcome int

const (
	// OutcomeSkipped means the source was blank and nothing was sent.
	OutcomeSkipped Outcome = iota
	// OutcomeBusy means another run was in flight and this one was ignored.
	OutcomeBusy
	// OutcomeScraped means the analysis payload is the current dataset.
	OutcomeScraped
	// OutcomePersisted means the persisted listing replaced the analysis payload.
	OutcomePersisted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeBusy:
		return "busy"
	case OutcomeScraped:
		return "scraped"
	case OutcomePersisted:
		return "persisted"
	default:
		return "unknown"
	}
}

// Result reports what a run did.
type Result struct {
	Outcome  Outcome
	Dataset  *models.Dataset
	Analysis *models.Analysis
	Mirrored bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds each run, all three calls included.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithPacing adds scrape pacing parameters to every analysis request.
func WithPacing(p *api.Pacing) Option {
	return func(o *Orchestrator) {
		o.pacing = p
	}
}

// WithMetrics records search outcomes and mirror failures.
func WithMetrics(m *api.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// OptionsFromConfig translates cfg into orchestrator options.
func OptionsFromConfig(cfg *config.Config) []Option {
	opts := []Option{WithTimeout(cfg.Timeout)}
	if cfg.SendPacing {
		opts = append(opts, WithPacing(&api.Pacing{
			MaxPages:     cfg.MaxPages,
			PerPageDelay: cfg.PerPageDelay,
			DetailDelay:  cfg.DetailDelay,
		}))
	}
	return opts
}

// Orchestrator runs searches one at a time and owns the current dataset.
type Orchestrator struct {
	analysis    AnalysisService
	persistence PersistenceService
	tokens      TokenSource

	timeout time.Duration
	pacing  *api.Pacing
	metrics *api.Metrics

	busy atomic.Bool

	mu        sync.RWMutex
	dataset   *models.Dataset
	summary   *models.Analysis
	listeners []func(*models.Dataset)
}

// New builds an orchestrator. tokens may be nil for anonymous use.
func New(analysis AnalysisService, persistence PersistenceService, tokens TokenSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		analysis:    analysis,
		persistence: persistence,
		tokens:      tokens,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnDataset registers fn to be called with every adopted dataset.
func (o *Orchestrator) OnDataset(fn func(*models.Dataset)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, fn)
}

// Dataset returns the current dataset, nil before the first successful run.
// The returned value is never modified afterwards.
func (o *Orchestrator) Dataset() *models.Dataset {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.dataset
}

// Analysis returns the analysis summary from the last successful analysis call, if any.
func (o *Orchestrator) Analysis() *models.Analysis {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.summary
}

// Busy reports whether a run is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Run performs one search:
//
//  1. call the analysis service and adopt its payload as the dataset
//  2. mirror the payload to the persistence service, ignoring any failure
//  3. with a token, replace the dataset with the persisted listing if that call succeeds
//
// A blank source or a run already in flight returns immediately with a nil error.
// Only a failed analysis call is reported, as a *TransportError.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	source := parser.NormalizeSource(req.Source)
	if source == "" {
		o.metrics.IncSearch(OutcomeSkipped.String())
		return Result{Outcome: OutcomeSkipped}, nil
	}
	if !o.busy.CompareAndSwap(false, true) {
		slog.Debug("search ignored, another run in flight", "source", source)
		o.metrics.IncSearch(OutcomeBusy.String())
		return Result{Outcome: OutcomeBusy}, nil
	}
	defer o.busy.Store(false)

	token := ""
	if o.tokens != nil {
		token = o.tokens.Token()
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	started := time.Now()
	logger := slog.With("source", source, "url_mode", req.URLMode)

	searchReq := api.SearchRequest{Pacing: o.pacing}
	if req.URLMode {
		searchReq.URL = source
	} else {
		searchReq.Keyword = source
	}

	payload, err := o.analysis.Search(ctx, searchReq)
	if err != nil {
		logger.Warn("analysis call failed", "err", err, "error_type", api.ErrorTypeLabel(err))
		o.metrics.IncSearch("failed")
		return Result{}, transportError(err)
	}

	scraped := scrapedDataset(payload)
	o.adopt(scraped, payload.Analysis)
	result := Result{
		Outcome:  OutcomeScraped,
		Dataset:  scraped,
		Analysis: payload.Analysis,
		Mirrored: o.mirror(ctx, payload),
	}

	if token == "" {
		logger.Info("search complete", "outcome", result.Outcome.String(), "items", scraped.Count, "duration", time.Since(started))
		o.metrics.IncSearch(result.Outcome.String())
		return result, nil
	}

	keyword := source
	if req.URLMode {
		keyword = ""
	}
	page, err := o.persistence.ListProducts(ctx, keyword, token)
	if err != nil {
		logger.Info("persisted listing unavailable, keeping scraped dataset", "err", err)
		o.metrics.IncSearch(result.Outcome.String())
		return result, nil
	}

	persisted := parser.DatasetFromPage(source, page)
	o.adopt(persisted, payload.Analysis)
	result.Outcome = OutcomePersisted
	result.Dataset = persisted

	logger.Info("search complete", "outcome", result.Outcome.String(), "items", persisted.Count, "scraped_items", scraped.Count, "duration", time.Since(started))
	o.metrics.IncSearch(result.Outcome.String())
	return result, nil
}

// mirror posts the payload to the persistence service. It never affects
// control flow: failures are logged at debug level and counted.
func (o *Orchestrator) mirror(ctx context.Context, payload *models.SearchResult) bool {
	if o.persistence == nil {
		return false
	}
	if err := o.persistence.Mirror(ctx, payload); err != nil {
		slog.Debug("mirror failed", "err", err, "error_type", api.ErrorTypeLabel(err))
		o.metrics.IncMirrorFailure()
		return false
	}
	return true
}

func (o *Orchestrator) adopt(ds *models.Dataset, summary *models.Analysis) {
	o.mu.Lock()
	o.dataset = ds
	o.summary = summary
	listeners := make([]func(*models.Dataset), len(o.listeners))
	copy(listeners, o.listeners)
	o.mu.Unlock()

	for _, fn := range listeners {
		fn(ds)
	}
}

func scrapedDataset(payload *models.SearchResult) *models.Dataset {
	items := payload.Items
	if items == nil {
		items = []models.Item{}
	}
	return &models.Dataset{
		Keyword: payload.Keyword,
		Count:   payload.Count,
		Items:   items,
	}
}

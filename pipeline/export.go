package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/aluiziolira/smartmarket/config"
	"github.com/aluiziolira/smartmarket/models"
)

const progressInterval = 2 * time.Second

// ExportResult summarises one export.
type ExportResult struct {
	Written int64
	Skipped map[string]int
	Paths   []string
}

type pathed interface {
	Paths() []string
}

type singlePath interface {
	Path() string
}

// Export writes items to path in format, in their original order.
// Invalid and duplicate items are skipped and counted.
func Export(ctx context.Context, cfg *config.Config, items []models.Item, path, format string) (*ExportResult, error) {
	if format == "" {
		format = cfg.OutputFormat
	}
	writer, err := NewWriter(format, path)
	if err != nil {
		return nil, err
	}

	p := NewPipeline(ctx, writer, cfg)
	p.Start(1)
	if cfg.Verbose {
		p.StartMetricsReporting(progressInterval)
	}

	for i := range items {
		if err := p.Process(&items[i]); err != nil {
			p.Close()
			writer.Close()
			return nil, fmt.Errorf("queue item: %w", err)
		}
	}

	if err := p.Close(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("export pipeline: %w", err)
	}
	if err := writer.Validate(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("validate output: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close output: %w", err)
	}

	metrics := p.GetMetrics()
	result := &ExportResult{Skipped: map[string]int{}}
	if processed, ok := metrics["processed_items"].(int64); ok {
		result.Written = processed
	}
	if skipped, ok := metrics["validation_errors"].(map[string]int); ok {
		result.Skipped = skipped
	}
	switch w := writer.(type) {
	case pathed:
		result.Paths = w.Paths()
	case singlePath:
		result.Paths = []string{w.Path()}
	}
	return result, nil
}

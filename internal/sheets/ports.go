package sheets

import (
	"context"

	"orcamento/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter mirrors the per-month summaries somewhere external.
	// Each call replaces whatever an earlier call wrote.
	SummaryWriter interface {
		WriteSummaries(ctx context.Context, summaries []core.MonthSummary) error
	}
)

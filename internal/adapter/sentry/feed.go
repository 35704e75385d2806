package sentry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orbitwatch/neo-data-service/internal/domain"
)

// Feed combines the risk-table listing with per-object detail lookups. The
// list endpoint carries no impact dates, so each row is enriched through the
// object endpoint, normally behind a CachedClient.
type Feed struct {
	client  *Client
	objects ObjectFetcher
	logger  *slog.Logger
}

// NewFeed creates a threat feed over the given list client and object fetcher.
func NewFeed(client *Client, objects ObjectFetcher, logger *slog.Logger) *Feed {
	return &Feed{
		client:  client,
		objects: objects,
		logger:  logger,
	}
}

// FetchRisks returns the current risk table with per-object enrichment. A
// failed detail lookup keeps the summary row; only cancellation aborts.
func (f *Feed) FetchRisks(ctx context.Context) ([]domain.ThreatAssessment, error) {
	risks, err := f.client.FetchRisks(ctx)
	if err != nil {
		return nil, err
	}

	for i := range risks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch risk details: %w", err)
		}

		detail, err := f.objects.FetchObject(ctx, risks[i].Designation)
		if err != nil {
			f.logger.Warn("object detail lookup failed", "designation", risks[i].Designation, "error", err)
			continue
		}
		if detail == nil {
			continue
		}

		risks[i].ImpactYears = detail.ImpactYears
		if detail.NImp > 0 {
			risks[i].NImp = detail.NImp
		}
		if detail.LastObs != "" {
			risks[i].LastObs = detail.LastObs
		}
	}
	return risks, nil
}

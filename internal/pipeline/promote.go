package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spigell/job-triage/internal/jobs"
	"go.uber.org/zap"
)

// selectFallback returns the best limit matches by score. Equal scores keep
// processing order.
func selectFallback(matches []*jobs.Match, limit int) []*jobs.Match {
	if limit <= 0 || len(matches) == 0 {
		return nil
	}

	ranked := slices.Clone(matches)
	slices.SortStableFunc(ranked, func(a, b *jobs.Match) int {
		return cmp.Compare(b.FitScore, a.FitScore)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// promoteFallback force-promotes the top matches when nothing cleared the
// threshold.
func (p *Pipeline) promoteFallback(ctx context.Context, r *run) int {
	promoted := 0
	for _, m := range selectFallback(r.created, p.cfg.FallbackLimit) {
		if !jobs.IsTransitionAllowed(jobs.ActorPipeline, m.Status, jobs.StatusDrafted) {
			continue
		}

		reasons := maps.Clone(m.Reasons)
		if reasons == nil {
			reasons = map[string]any{}
		}
		reasons["promotion"] = "fallback"

		if err := p.store.UpdateMatchStatus(ctx, m.ID, m.Status, jobs.StatusDrafted, reasons); err != nil {
			r.recordError(fmt.Sprintf("promote %s: %v", m.Posting.Label(), err))
			continue
		}

		r.logger.Info("match promoted by fallback",
			zap.String("match_id", m.ID),
			zap.Int("fit_score", m.FitScore),
		)

		m.Status = jobs.StatusDrafted
		m.Reasons = reasons
		r.promoted = append(r.promoted, m)
		promoted++
	}
	return promoted
}

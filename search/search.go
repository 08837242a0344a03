// Package search finds candidate messages around an anchor instant: a
// windowed collection pass, a stable distance ranking, and a bounded
// nearest-neighbor scan used only for failure diagnostics.
package search

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"mailresolve/model"
	"mailresolve/normalize"
	"mailresolve/store"
	"mailresolve/trace"
)

// DefaultHalfWidth is the empirical tolerance between the triggering
// event's logged time and the asynchronous mail delivery time.
const DefaultHalfWidth = 180 * time.Second

// DefaultNearestLimit caps the nearest-neighbor scan across all sources.
const DefaultNearestLimit = 200

// CollectInWindow queries each source for messages received inside
// [anchor-halfWidth, anchor+halfWidth], inclusive at both ends. A source
// whose query fails is skipped with a warning, not aborted. The result must
// pass through Rank before use.
func CollectInWindow(ctx context.Context, sources []store.Source, anchor time.Time, halfWidth time.Duration, tr *trace.Recorder, logger *slog.Logger) []model.Envelope {
	start := anchor.Add(-halfWidth)
	end := anchor.Add(halfWidth)

	var out []model.Envelope
	for _, src := range sources {
		msgs, err := src.Folder.QueryWindow(ctx, start, end)
		if err != nil {
			if logger != nil {
				logger.Warn("window query failed", "source", src.Label, "err", err)
			}
			continue
		}
		for _, msg := range msgs {
			env, err := store.BuildEnvelope(msg)
			if err != nil {
				if logger != nil {
					logger.Warn("candidate parse failed", "source", src.Label, "err", err)
				}
				continue
			}
			tr.Record(trace.Event{Kind: trace.KindWindowHit, Label: src.Label, Detail: env.Subject})
			out = append(out, env)
		}
	}
	return out
}

// Rank sorts envelopes ascending by absolute time distance to the anchor.
// The sort is stable: ties preserve original scan order, so the output
// depends only on (distance, original index).
func Rank(envelopes []model.Envelope, anchor time.Time) []model.Envelope {
	ranked := make([]model.Envelope, len(envelopes))
	copy(ranked, envelopes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return normalize.Distance(ranked[i].ReceivedAt, anchor) < normalize.Distance(ranked[j].ReceivedAt, anchor)
	})
	return ranked
}

// FindNearest scans sources newest-first up to a global cap and returns the
// single envelope closest to the anchor. The result is diagnostic only: its
// distance may be arbitrarily large, so it is surfaced in failure reports
// but never substituted as the selected candidate.
func FindNearest(ctx context.Context, sources []store.Source, anchor time.Time, limit int, logger *slog.Logger) (model.Envelope, bool) {
	if limit <= 0 {
		limit = DefaultNearestLimit
	}

	var (
		best     model.Envelope
		bestDist time.Duration
		found    bool
	)
	remaining := limit
	for _, src := range sources {
		if remaining <= 0 {
			break
		}
		msgs, err := src.Folder.Recent(ctx, remaining)
		if err != nil {
			if logger != nil {
				logger.Debug("nearest scan failed", "source", src.Label, "err", err)
			}
			continue
		}
		for _, msg := range msgs {
			if remaining <= 0 {
				break
			}
			remaining--
			env, err := store.BuildEnvelope(msg)
			if err != nil {
				continue
			}
			d := normalize.Distance(env.ReceivedAt, anchor)
			if !found || d < bestDist {
				best, bestDist, found = env, d, true
			}
		}
	}
	return best, found
}

// Package resolver runs one full resolution: enumerate sources, collect
// candidates in the time window, rank them, and drive the extraction
// pipeline. Everything is synchronous; a resolution owns its collaborators
// for its whole lifetime and shares nothing.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"mailresolve/extract"
	"mailresolve/fetch"
	"mailresolve/model"
	"mailresolve/normalize"
	"mailresolve/prompt"
	"mailresolve/search"
	"mailresolve/store"
	"mailresolve/trace"
)

type Options struct {
	HalfWidth    time.Duration // candidate window half-width, default 180s
	NearestLimit int           // diagnostic scan cap, default 200
	TempDir      string        // attachment staging directory
}

type Resolver struct {
	Store    store.Store
	Fetcher  fetch.Fetcher
	Selector prompt.Selector
	Options  Options
	Logger   *slog.Logger
}

// Resolve finds the single correct notification message around ectx.Anchor
// and extracts its evidence row. Terminal errors carry the anchor, nearest
// message diagnostics and the scanned-row trace needed for manual recovery.
func (r *Resolver) Resolve(ctx context.Context, ectx model.Context) (*model.Evidence, error) {
	started := time.Now()
	tr := trace.NewRecorder()

	halfWidth := r.Options.HalfWidth
	if halfWidth <= 0 {
		halfWidth = search.DefaultHalfWidth
	}
	limit := r.Options.NearestLimit
	if limit <= 0 {
		limit = search.DefaultNearestLimit
	}

	sources := store.EnumerateSources(r.Store, tr, r.Logger)
	if len(sources) == 0 {
		return nil, model.ErrNoSources
	}
	if r.Logger != nil {
		r.Logger.Info("message sources enumerated", "count", len(sources))
	}

	candidates := search.CollectInWindow(ctx, sources, ectx.Anchor, halfWidth, tr, r.Logger)
	if len(candidates) == 0 {
		return nil, r.noCandidates(ctx, sources, ectx.Anchor, halfWidth, limit)
	}

	ranked := search.Rank(candidates, ectx.Anchor)
	if r.Logger != nil {
		r.Logger.Info("candidates ranked", "count", len(ranked), "anchor", ectx.Anchor)
		for _, env := range ranked {
			r.Logger.Info("candidate",
				"received", env.ReceivedAt,
				"subject", env.Subject,
				"distance", normalize.Distance(env.ReceivedAt, ectx.Anchor))
		}
	}

	pipeline := &extract.Pipeline{
		Context:  ectx,
		Fetcher:  r.Fetcher,
		Selector: r.Selector,
		Trace:    tr,
		Logger:   r.Logger,
		TempDir:  r.Options.TempDir,
	}
	evidence, err := pipeline.Run(ctx, ranked)

	duration := time.Since(started)
	attrs := append(tr.Summary().LogAttrs(), "duration", duration)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Error("resolution failed", append(attrs, "err", err)...)
		}
		return nil, err
	}
	if r.Logger != nil {
		r.Logger.Info("resolution completed", attrs...)
	}
	return evidence, nil
}

// noCandidates runs the diagnostic nearest scan and builds the terminal
// error. The nearest envelope is reported, never selected: its distance may
// be arbitrarily large.
func (r *Resolver) noCandidates(ctx context.Context, sources []store.Source, anchor time.Time, halfWidth time.Duration, limit int) error {
	nerr := &model.NoCandidatesError{Anchor: anchor, HalfWidth: halfWidth}
	nearest, ok := search.FindNearest(ctx, sources, anchor, limit, r.Logger)
	if ok {
		nerr.Nearest = &nearest
		nerr.NearestDistance = normalize.Distance(nearest.ReceivedAt, anchor)
		if r.Logger != nil {
			r.Logger.Error("no messages in window, closest match follows",
				"received", nearest.ReceivedAt,
				"subject", nearest.Subject,
				"distance", nerr.NearestDistance)
			r.Logger.Error("closest message body preview", "body", preview(nearest.Body))
		}
	} else if r.Logger != nil {
		r.Logger.Error("no messages in window and nothing close enough to report", "anchor", anchor)
	}
	return nerr
}

func preview(body string) string {
	const limit = 2000
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit]) + "..."
}

package store

import (
	"log/slog"
	"strings"

	"mailresolve/trace"
)

// Source is one message-bearing container yielded by enumeration, labelled
// with its path chain.
type Source struct {
	Label  string
	Folder Folder
}

// EnumerateSources walks every top-level container depth-first and yields
// the message-bearing ones. Folder identities are tracked so cyclic or
// re-linked hierarchies are skipped silently. Non-message folders (calendar,
// contacts, tasks, notes) are traversed but not yielded. When the walk
// yields nothing, the store's default inbox is used as a single fallback
// source. Zero sources overall is the caller's condition to escalate, not a
// crash.
func EnumerateSources(st Store, tr *trace.Recorder, logger *slog.Logger) []Source {
	var sources []Source
	visited := make(map[string]bool)

	var walk func(f Folder, chain []string)
	walk = func(f Folder, chain []string) {
		if id := f.ID(); id != "" {
			if visited[id] {
				return
			}
			visited[id] = true
		}

		label := f.Name()
		if len(chain) > 0 {
			label = strings.Join(chain, "/") + "/" + label
		}

		if f.MessageBearing() {
			sources = append(sources, Source{Label: label, Folder: f})
			tr.Record(trace.Event{Kind: trace.KindSource, Label: label})
		} else if logger != nil {
			logger.Debug("folder excluded from search", "folder", label)
		}

		children, err := f.Children()
		if err != nil {
			if logger != nil {
				logger.Debug("list subfolders failed", "folder", label, "err", err)
			}
			return
		}
		next := append(append([]string{}, chain...), f.Name())
		for _, child := range children {
			walk(child, next)
		}
	}

	roots, err := st.Roots()
	if err != nil && logger != nil {
		logger.Warn("store enumeration failed", "err", err)
	}
	for _, root := range roots {
		walk(root, nil)
	}

	if len(sources) == 0 {
		inbox, err := st.DefaultInbox()
		if err != nil || inbox == nil {
			if logger != nil {
				logger.Warn("default inbox fallback failed", "err", err)
			}
			return sources
		}
		walk(inbox, []string{"DefaultInbox"})
	}

	return sources
}

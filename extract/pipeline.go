// Package extract turns a ranked candidate list into one evidence row via a
// fixed-order chain of fallback strategies: body-phrase match with an
// external document lookup, attachment match, and finally manual selection.
package extract

import (
	"context"
	"log/slog"
	"os"
	"time"

	"mailresolve/document"
	"mailresolve/fetch"
	"mailresolve/match"
	"mailresolve/model"
	"mailresolve/prompt"
	"mailresolve/store"
	"mailresolve/trace"
)

// Tier names used in logs and the trace.
const (
	TierBodyPhrase  = "body_phrase"
	TierExternalDoc = "external_document"
	TierAttachments = "attachments"
	TierManual      = "manual"
)

// Pipeline applies the tier chain. Every field except Context is a
// collaborator; OpenDocument defaults to document.Open.
type Pipeline struct {
	Context      model.Context
	Fetcher      fetch.Fetcher
	Selector     prompt.Selector
	Trace        *trace.Recorder
	Logger       *slog.Logger
	TempDir      string
	OpenDocument func(path string) (document.Workbook, error)
}

// Run walks the tiers over the ranked candidates. The first success commits
// and returns; failed attempts never produce partial evidence. When even the
// manual tier cannot extract anything the error is a *model.TierExhaustedError
// carrying the full scanned-row trace.
func (p *Pipeline) Run(ctx context.Context, ranked []model.Envelope) (*model.Evidence, error) {
	// Tier 1+2: candidates whose body carries the notification phrase, in
	// rank order, each resolved through its embedded document URL.
	p.Trace.Record(trace.Event{Kind: trace.KindTier, Label: TierBodyPhrase})
	for _, env := range ranked {
		if !match.BodyHasPhrase(env.Body, p.Context.PersonnelID) {
			continue
		}
		p.Trace.Record(trace.Event{Kind: trace.KindCandidate, Label: TierBodyPhrase, Detail: env.Subject})
		if ev, ok := p.tryExternalDocument(ctx, env); ok {
			return ev, nil
		}
	}
	if p.Logger != nil {
		p.Logger.Info("no phrase-matched candidate yielded a document row, moving to attachments")
	}

	// Tier 3: attachment match, one pass per key so the special-case name
	// pass covers every candidate before the id pass starts.
	p.Trace.Record(trace.Event{Kind: trace.KindTier, Label: TierAttachments})
	for pass, key := range p.attachmentKeys() {
		for _, env := range ranked {
			// later key passes revisit the same candidates; trace each once
			if pass == 0 {
				p.Trace.Record(trace.Event{Kind: trace.KindCandidate, Label: TierAttachments, Detail: env.Subject})
			}
			if ev, ok := p.tryAttachments(env, []document.Key{key}); ok {
				return ev, nil
			}
		}
	}

	// Tier 4: hand the ranked list to the human-selection collaborator.
	p.Trace.Record(trace.Event{Kind: trace.KindTier, Label: TierManual})
	return p.manualTier(ctx, ranked)
}

// attachmentKeys returns the match keys in business order: person name
// before personnel id for special-case companies, id only otherwise.
func (p *Pipeline) attachmentKeys() []document.Key {
	id := document.Key{Kind: document.KeyPersonnelID, Token: p.Context.PersonnelID}
	if p.Context.CompanyIsSpecialCase && p.Context.PersonName != "" {
		return []document.Key{
			{Kind: document.KeyPersonName, Token: p.Context.PersonName},
			id,
		}
	}
	return []document.Key{id}
}

// tryExternalDocument extracts the first URL from the candidate's body,
// fetches the referenced workbook, and looks the personnel id up in the
// designated answer column. Fetch and open failures fall through.
func (p *Pipeline) tryExternalDocument(ctx context.Context, env model.Envelope) (*model.Evidence, bool) {
	url, ok := match.FirstURL(env.Body)
	if !ok {
		if p.Logger != nil {
			p.Logger.Debug("candidate body has no document URL", "subject", env.Subject)
		}
		return nil, false
	}

	if p.Fetcher == nil {
		return nil, false
	}
	path, cleanup, err := p.Fetcher.FetchToFile(ctx, url)
	if err != nil {
		p.recordDocumentError(err)
		return nil, false
	}
	defer cleanup()

	wb, err := p.open(path)
	if err != nil {
		p.recordDocumentError(err)
		return nil, false
	}
	defer wb.Close()

	key := document.Key{Kind: document.KeyPersonnelID, Token: p.Context.PersonnelID}
	m, ok := document.MatchAnswerColumn(wb, key, document.DefaultAnswerColumn)
	if !ok {
		if p.Logger != nil {
			p.Logger.Warn("fetched document has no row for the personnel id", "url", url)
		}
		return nil, false
	}

	if p.Logger != nil {
		p.Logger.Info("evidence row found in external document", "url", url, "sheet", m.SheetName, "row", m.RowIndex)
	}
	return p.commit(env, m, model.SourceExternalDocument), true
}

// tryAttachments saves each spreadsheet-like attachment to a scoped temp
// file, matches it, and deletes the file whether or not it matched.
func (p *Pipeline) tryAttachments(env model.Envelope, keys []document.Key) (*model.Evidence, bool) {
	msg, ok := store.MessageOf(env)
	if !ok {
		return nil, false
	}
	attachments, err := msg.Attachments()
	if err != nil {
		if p.Logger != nil {
			p.Logger.Warn("listing attachments failed", "subject", env.Subject, "err", err)
		}
		return nil, false
	}

	for _, att := range attachments {
		if !document.SpreadsheetLike(att.Filename()) {
			if p.Logger != nil {
				p.Logger.Debug("attachment skipped, not a workbook", "filename", att.Filename())
			}
			continue
		}

		path, err := att.SaveTo(p.tempDir())
		if err != nil {
			if p.Logger != nil {
				p.Logger.Warn("saving attachment failed", "filename", att.Filename(), "err", err)
			}
			continue
		}

		ev, matched := func() (*model.Evidence, bool) {
			defer os.Remove(path)

			wb, err := p.open(path)
			if err != nil {
				p.recordDocumentError(err)
				return nil, false
			}
			defer wb.Close()

			m, ok := document.MatchRow(wb, keys, p.Trace)
			if !ok {
				return nil, false
			}
			if p.Logger != nil {
				p.Logger.Info("evidence row found in attachment", "filename", att.Filename(), "sheet", m.SheetName, "row", m.RowIndex, "key", string(m.Key.Kind))
			}
			return p.commit(env, m, model.SourceAttachment), true
		}()
		if matched {
			return ev, true
		}
	}
	return nil, false
}

// manualTier presents the ranked list and retries the automated tiers
// against the single chosen candidate.
func (p *Pipeline) manualTier(ctx context.Context, ranked []model.Envelope) (*model.Evidence, error) {
	if p.Selector == nil {
		return nil, p.exhausted(ranked, model.ErrUserCancelled)
	}

	candidates := make([]prompt.Candidate, len(ranked))
	for i, env := range ranked {
		candidates[i] = prompt.Describe(env, i)
	}
	idx, err := p.Selector.Select(candidates)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(ranked) {
		return nil, model.ErrUserCancelled
	}
	env := ranked[idx]

	if match.BodyHasPhrase(env.Body, p.Context.PersonnelID) {
		if ev, ok := p.tryExternalDocument(ctx, env); ok {
			return ev, nil
		}
		if p.Logger != nil {
			p.Logger.Warn("chosen message has the phrase but no document row, checking attachments", "subject", env.Subject)
		}
	}

	if ev, ok := p.tryAttachments(env, p.attachmentKeys()); ok {
		return ev, nil
	}

	return nil, p.exhausted(ranked, model.ErrUnsupportedMessage)
}

func (p *Pipeline) exhausted(ranked []model.Envelope, cause error) error {
	return &model.TierExhaustedError{
		Anchor:     p.Context.Anchor,
		Candidates: len(ranked),
		RowTrace:   p.Trace.RowTrace(),
		Err:        cause,
	}
}

// commit is the single point where evidence and mail metadata are written.
func (p *Pipeline) commit(env model.Envelope, m document.Match, source model.EvidenceSource) *model.Evidence {
	ev := &model.Evidence{
		Row:       m.Row,
		RowIndex:  m.RowIndex,
		SheetName: m.SheetName,
		Source:    source,
		Selected:  env,
	}
	if msg, ok := store.MessageOf(env); ok {
		meta := CollectMetadata(msg, p.Logger)
		ev.Sender = meta.Sender
		ev.CC = meta.CC
		ev.BCC = meta.BCC
		ev.ReplyBody = meta.ReplyBody
	}
	return ev
}

// Fetched and saved documents may still be flushing when the pipeline gets
// to them, so the default opener retries on a fixed interval.
const (
	openAttempts = 3
	openInterval = 500 * time.Millisecond
)

func (p *Pipeline) open(path string) (document.Workbook, error) {
	if p.OpenDocument != nil {
		return p.OpenDocument(path)
	}
	return document.OpenWithRetry(path, openAttempts, openInterval)
}

func (p *Pipeline) tempDir() string {
	if p.TempDir != "" {
		return p.TempDir
	}
	return os.TempDir()
}

func (p *Pipeline) recordDocumentError(err error) {
	p.Trace.Record(trace.Event{Kind: trace.KindDocumentErr, Detail: err.Error()})
	if p.Logger != nil {
		p.Logger.Warn("document unavailable", "err", err)
	}
}

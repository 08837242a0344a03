// Package imap exposes an IMAP account as a message store. Mailboxes are
// listed flat; selectable mailboxes are message-bearing. Time-window queries
// go through UID SEARCH at day granularity and are narrowed client-side to
// the exact inclusive window.
package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"mailresolve/normalize"
	"mailresolve/rawmail"
	"mailresolve/store"
)

type Options struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
}

type Store struct {
	opts   Options
	client *imapclient.Client
	logger *slog.Logger

	selected string
}

// Dial connects and logs in. The caller owns the connection for the whole
// resolution and closes it on completion.
func Dial(opts Options, logger *slog.Logger) (*Store, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("imap host is empty")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("imap port must be positive")
	}

	address := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	options := &imapclient.Options{}
	if opts.UseTLS {
		options.TLSConfig = &tls.Config{
			ServerName:         opts.Host,
			InsecureSkipVerify: opts.InsecureSkipVerify,
		}
	}

	var (
		client *imapclient.Client
		err    error
	)
	if opts.UseTLS {
		client, err = imapclient.DialTLS(address, options)
	} else {
		client, err = imapclient.DialInsecure(address, options)
	}
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", address, err)
	}

	if err := client.Login(opts.Username, opts.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("imap login failed: %w", err)
	}

	if logger != nil {
		logger.Debug("imap connection established", "address", address, "user", opts.Username, "tls", opts.UseTLS)
	}

	return &Store{opts: opts, client: client, logger: logger}, nil
}

func (s *Store) Close() error {
	if err := s.client.Logout().Wait(); err != nil {
		if s.logger != nil {
			s.logger.Warn("imap logout failed", "err", err)
		}
	}
	return s.client.Close()
}

func (s *Store) Roots() ([]store.Folder, error) {
	mailboxes, err := s.client.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}

	folders := make([]store.Folder, 0, len(mailboxes))
	for _, mbox := range mailboxes {
		folders = append(folders, &folder{
			store:      s,
			mailbox:    mbox.Mailbox,
			selectable: !hasAttr(mbox.Attrs, imapv2.MailboxAttrNoSelect) && !hasAttr(mbox.Attrs, imapv2.MailboxAttrNonExistent),
		})
	}
	return folders, nil
}

func (s *Store) DefaultInbox() (store.Folder, error) {
	return &folder{store: s, mailbox: "INBOX", selectable: true}, nil
}

func hasAttr(attrs []imapv2.MailboxAttr, want imapv2.MailboxAttr) bool {
	for _, attr := range attrs {
		if attr == want {
			return true
		}
	}
	return false
}

func (s *Store) ensureSelected(mailbox string) error {
	if s.selected == mailbox {
		return nil
	}
	if _, err := s.client.Select(mailbox, &imapv2.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		s.selected = ""
		return fmt.Errorf("select %s: %w", mailbox, err)
	}
	s.selected = mailbox
	return nil
}

// folder is one IMAP mailbox. The LIST response is flat, so folders carry no
// children; hierarchy shows up only in the mailbox name.
type folder struct {
	store      *Store
	mailbox    string
	selectable bool
}

func (f *folder) ID() string { return f.mailbox }
func (f *folder) Name() string { return f.mailbox }
func (f *folder) MessageBearing() bool { return f.selectable }
func (f *folder) Children() ([]store.Folder, error) { return nil, nil }

func (f *folder) QueryWindow(ctx context.Context, start, end time.Time) ([]store.Message, error) {
	if err := f.store.ensureSelected(f.mailbox); err != nil {
		return nil, err
	}

	// SINCE/BEFORE are date-granular; widen to whole days and narrow below.
	criteria := &imapv2.SearchCriteria{
		Since:  truncateDay(start),
		Before: truncateDay(end).AddDate(0, 0, 1),
	}
	data, err := f.store.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", f.mailbox, err)
	}
	uids := data.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	msgs, err := f.fetch(imapv2.UIDSetNum(uids...))
	if err != nil {
		return nil, err
	}

	var out []store.Message
	for _, msg := range msgs {
		rt := msg.ReceivedAt()
		if rt.Before(start) || rt.After(end) {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (f *folder) Recent(ctx context.Context, limit int) ([]store.Message, error) {
	if err := f.store.ensureSelected(f.mailbox); err != nil {
		return nil, err
	}

	status, err := f.store.client.Status(f.mailbox, &imapv2.StatusOptions{NumMessages: true}).Wait()
	if err != nil {
		return nil, fmt.Errorf("status %s: %w", f.mailbox, err)
	}
	if status.NumMessages == nil || *status.NumMessages == 0 {
		return nil, nil
	}

	total := int(*status.NumMessages)
	first := 1
	if limit > 0 && total > limit {
		first = total - limit + 1
	}
	var seqSet imapv2.SeqSet
	seqSet.AddRange(uint32(first), uint32(total))

	msgs, err := f.fetch(seqSet)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].ReceivedAt().After(msgs[j].ReceivedAt())
	})
	out := make([]store.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg
	}
	return out, nil
}

var wholeMessage = &imapv2.FetchItemBodySection{}

func (f *folder) fetch(numSet imapv2.NumSet) ([]*message, error) {
	buffers, err := f.store.client.Fetch(numSet, &imapv2.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imapv2.FetchItemBodySection{wholeMessage},
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", f.mailbox, err)
	}

	msgs := make([]*message, 0, len(buffers))
	for _, buf := range buffers {
		if buf.Envelope == nil {
			continue
		}
		msgs = append(msgs, &message{
			mailbox:  f.mailbox,
			uid:      buf.UID,
			envelope: buf.Envelope,
			received: normalize.Time(buf.InternalDate),
			raw:      buf.FindBodySection(wholeMessage),
		})
	}
	return msgs, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

type message struct {
	mailbox  string
	uid      imapv2.UID
	envelope *imapv2.Envelope
	received time.Time
	raw      []byte
}

func (m *message) ID() string {
	if m.envelope.MessageID != "" {
		return m.envelope.MessageID
	}
	return fmt.Sprintf("%s/%d", m.mailbox, m.uid)
}

func (m *message) Subject() string { return m.envelope.Subject }

func (m *message) Sender() string {
	if len(m.envelope.From) == 0 {
		return ""
	}
	from := m.envelope.From[0]
	if from.Name != "" {
		return from.Name
	}
	return from.Addr()
}

func (m *message) SenderAddress() string {
	if len(m.envelope.From) == 0 {
		return ""
	}
	return m.envelope.From[0].Addr()
}

func (m *message) ReceivedAt() time.Time { return m.received }

func (m *message) Body() (string, error) {
	return rawmail.Body(m.raw)
}

func (m *message) Attachments() ([]store.Attachment, error) {
	parts, err := rawmail.Attachments(m.raw)
	if err != nil {
		return nil, err
	}
	out := make([]store.Attachment, 0, len(parts))
	for _, part := range parts {
		out = append(out, &attachment{part: part})
	}
	return out, nil
}

func (m *message) Recipients() ([]store.Recipient, error) {
	var out []store.Recipient
	for _, addr := range m.envelope.Cc {
		out = append(out, &recipient{kind: store.RecipientCC, addr: addr})
	}
	for _, addr := range m.envelope.Bcc {
		out = append(out, &recipient{kind: store.RecipientBCC, addr: addr})
	}
	for _, addr := range m.envelope.To {
		out = append(out, &recipient{kind: store.RecipientTo, addr: addr})
	}
	return out, nil
}

func (m *message) ReplyBody() (string, error) {
	// IMAP cannot draft a reply server-side; the original body stands in
	return m.Body()
}

type attachment struct {
	part rawmail.Part
}

func (a *attachment) Filename() string { return a.part.Filename }

func (a *attachment) SaveTo(dir string) (string, error) {
	return saveData(dir, a.part.Filename, a.part.Data)
}

func saveData(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("attachment_%d_%s", time.Now().UnixNano(), filepath.Base(filename)))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("save attachment %s: %w", filename, err)
	}
	return path, nil
}

type recipient struct {
	kind store.RecipientKind
	addr imapv2.Address
}

func (r *recipient) Kind() store.RecipientKind { return r.kind }

func (r *recipient) AddressAccessors() []store.AddressAccessor {
	return []store.AddressAccessor{
		{Name: "envelope", Get: func() (string, error) {
			if r.addr.Mailbox == "" || r.addr.Host == "" {
				return "", nil
			}
			return r.addr.Addr(), nil
		}},
		{Name: "display", Get: func() (string, error) {
			// group syntax and unresolved entries land here
			return strings.TrimSpace(r.addr.Name), nil
		}},
	}
}

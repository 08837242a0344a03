// Package mbox exposes a directory tree of mbox archives as a message
// store: each .mbox file is one message-bearing folder, subdirectories are
// traversed, other files are visible but excluded from search. It backs
// offline runs and tests.
package mbox

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	mboxlib "github.com/emersion/go-mbox"

	"mailresolve/normalize"
	"mailresolve/rawmail"
	"mailresolve/store"
)

const archiveExt = ".mbox"

type Store struct {
	root   string
	logger *slog.Logger
}

func NewStore(root string, logger *slog.Logger) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("mbox root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve mbox root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat mbox root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("mbox root %s is not a directory", abs)
	}
	return &Store{root: abs, logger: logger}, nil
}

func (s *Store) Roots() ([]store.Folder, error) {
	return s.children(s.root)
}

func (s *Store) DefaultInbox() (store.Folder, error) {
	path := filepath.Join(s.root, "INBOX"+archiveExt)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no default inbox archive: %w", err)
	}
	return &archiveFolder{path: path, logger: s.logger}, nil
}

func (s *Store) children(dir string) ([]store.Folder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	folders := make([]store.Folder, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			folders = append(folders, &dirFolder{store: s, path: path})
			continue
		}
		folders = append(folders, &archiveFolder{path: path, logger: s.logger})
	}
	return folders, nil
}

// dirFolder is a plain directory: traversed for children, never searched.
type dirFolder struct {
	store *Store
	path  string
}

func (f *dirFolder) ID() string { return f.path }
func (f *dirFolder) Name() string { return filepath.Base(f.path) }

func (f *dirFolder) MessageBearing() bool { return false }

func (f *dirFolder) Children() ([]store.Folder, error) {
	return f.store.children(f.path)
}

func (f *dirFolder) QueryWindow(ctx context.Context, start, end time.Time) ([]store.Message, error) {
	return nil, nil
}

func (f *dirFolder) Recent(ctx context.Context, limit int) ([]store.Message, error) {
	return nil, nil
}

// archiveFolder is one mbox file.
type archiveFolder struct {
	path   string
	logger *slog.Logger
}

func (f *archiveFolder) ID() string { return f.path }
func (f *archiveFolder) Name() string { return filepath.Base(f.path) }

func (f *archiveFolder) MessageBearing() bool {
	return strings.EqualFold(filepath.Ext(f.path), archiveExt)
}

func (f *archiveFolder) Children() ([]store.Folder, error) { return nil, nil }

func (f *archiveFolder) QueryWindow(ctx context.Context, start, end time.Time) ([]store.Message, error) {
	msgs, err := f.readAll(ctx)
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

func (f *archiveFolder) Recent(ctx context.Context, limit int) ([]store.Message, error) {
	msgs, err := f.readAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].ReceivedAt().After(msgs[j].ReceivedAt())
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]store.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg
	}
	return out, nil
}

func (f *archiveFolder) readAll(ctx context.Context) ([]*Message, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	var msgs []*Message
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return msgs, nil
			}
			return nil, fmt.Errorf("message %d: %w", idx, err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return nil, fmt.Errorf("message %d read: %w", idx, err)
		}

		msg, err := parseMessage(raw)
		if err != nil {
			if f.logger != nil {
				f.logger.Warn("skipping unparseable message", "archive", f.path, "index", idx, "err", err)
			}
			continue
		}
		msgs = append(msgs, msg)
	}
}

// Message is one message from an mbox archive.
type Message struct {
	id            string
	subject       string
	sender        string
	senderAddress string
	receivedAt    time.Time
	header        mail.Header
	raw           []byte
}

func parseMessage(raw []byte) (*Message, error) {
	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		return nil, err
	}

	id := strings.Trim(strings.TrimSpace(parsed.Header.Get("Message-Id")), " <>")
	if id == "" {
		sum := sha256.Sum256(raw)
		id = base64.StdEncoding.EncodeToString(sum[:])
	}

	var receivedAt time.Time
	if date := parsed.Header.Get("Date"); date != "" {
		if t, err := mail.ParseDate(date); err == nil {
			receivedAt = normalize.Time(t)
		}
	}

	sender := parsed.Header.Get("From")
	senderAddress := ""
	if addr, err := mail.ParseAddress(sender); err == nil {
		senderAddress = addr.Address
		if addr.Name != "" {
			sender = addr.Name
		} else {
			sender = addr.Address
		}
	}

	return &Message{
		id:            id,
		subject:       parsed.Header.Get("Subject"),
		sender:        sender,
		senderAddress: senderAddress,
		receivedAt:    receivedAt,
		header:        parsed.Header,
		raw:           raw,
	}, nil
}

func (m *Message) ID() string { return m.id }
func (m *Message) Subject() string { return m.subject }
func (m *Message) Sender() string { return m.sender }
func (m *Message) SenderAddress() string { return m.senderAddress }
func (m *Message) ReceivedAt() time.Time { return m.receivedAt }

func (m *Message) Body() (string, error) {
	return rawmail.Body(m.raw)
}

func (m *Message) Attachments() ([]store.Attachment, error) {
	parts, err := rawmail.Attachments(m.raw)
	if err != nil {
		return nil, err
	}
	out := make([]store.Attachment, 0, len(parts))
	for _, part := range parts {
		out = append(out, &fileAttachment{filename: part.Filename, data: part.Data})
	}
	return out, nil
}

func (m *Message) Recipients() ([]store.Recipient, error) {
	var out []store.Recipient
	for _, field := range []struct {
		name string
		kind store.RecipientKind
	}{
		{"To", store.RecipientTo},
		{"Cc", store.RecipientCC},
		{"Bcc", store.RecipientBCC},
	} {
		header, kind := field.name, field.kind
		value := m.header.Get(header)
		if value == "" {
			continue
		}
		addrs, err := m.header.AddressList(header)
		if err != nil {
			// keep the raw tokens so the accessor chain still has something
			for _, raw := range strings.Split(value, ",") {
				out = append(out, &headerRecipient{kind: kind, raw: strings.TrimSpace(raw)})
			}
			continue
		}
		for _, addr := range addrs {
			out = append(out, &headerRecipient{kind: kind, addr: addr, raw: value})
		}
	}
	return out, nil
}

func (m *Message) ReplyBody() (string, error) {
	// mbox archives cannot draft replies; the original body is the fallback
	return m.Body()
}

type fileAttachment struct {
	filename string
	data     []byte
}

func (a *fileAttachment) Filename() string { return a.filename }

func (a *fileAttachment) SaveTo(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("attachment_%d_%s", time.Now().UnixNano(), filepath.Base(a.filename)))
	if err := os.WriteFile(path, a.data, 0o600); err != nil {
		return "", fmt.Errorf("save attachment %s: %w", a.filename, err)
	}
	return path, nil
}

type headerRecipient struct {
	kind store.RecipientKind
	addr *mail.Address
	raw  string
}

func (r *headerRecipient) Kind() store.RecipientKind { return r.kind }

func (r *headerRecipient) AddressAccessors() []store.AddressAccessor {
	return []store.AddressAccessor{
		{Name: "parsed", Get: func() (string, error) {
			if r.addr == nil {
				return "", nil
			}
			return r.addr.Address, nil
		}},
		{Name: "raw", Get: func() (string, error) {
			return r.raw, nil
		}},
	}
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"mailresolve/trace"
)

type fakeMessage struct {
	id       string
	subject  string
	received time.Time
	body     string
	bodyErr  error
}

func (m *fakeMessage) ID() string { return m.id }
func (m *fakeMessage) Subject() string { return m.subject }
func (m *fakeMessage) Sender() string { return "Sender" }
func (m *fakeMessage) SenderAddress() string { return "sender@example.com" }
func (m *fakeMessage) ReceivedAt() time.Time { return m.received }
func (m *fakeMessage) Body() (string, error) { return m.body, m.bodyErr }
func (m *fakeMessage) Attachments() ([]Attachment, error) { return nil, nil }
func (m *fakeMessage) Recipients() ([]Recipient, error) { return nil, nil }
func (m *fakeMessage) ReplyBody() (string, error) { return m.body, m.bodyErr }

type fakeFolder struct {
	id       string
	name     string
	bearing  bool
	children []Folder
	childErr error
	messages []Message
}

func (f *fakeFolder) ID() string { return f.id }
func (f *fakeFolder) Name() string { return f.name }
func (f *fakeFolder) MessageBearing() bool { return f.bearing }
func (f *fakeFolder) Children() ([]Folder, error) { return f.children, f.childErr }

func (f *fakeFolder) QueryWindow(ctx context.Context, start, end time.Time) ([]Message, error) {
	return f.messages, nil
}

func (f *fakeFolder) Recent(ctx context.Context, limit int) ([]Message, error) {
	if limit < len(f.messages) {
		return f.messages[:limit], nil
	}
	return f.messages, nil
}

type fakeStore struct {
	roots    []Folder
	rootsErr error
	inbox    Folder
	inboxErr error
}

func (s *fakeStore) Roots() ([]Folder, error) { return s.roots, s.rootsErr }
func (s *fakeStore) DefaultInbox() (Folder, error) { return s.inbox, s.inboxErr }

func TestEnumerateSources_NestedLabels(t *testing.T) {
	leaf := &fakeFolder{id: "leaf", name: "Archive", bearing: true}
	mid := &fakeFolder{id: "mid", name: "Inbox", bearing: true, children: []Folder{leaf}}
	root := &fakeFolder{id: "root", name: "Mailbox", bearing: false, children: []Folder{mid}}

	sources := EnumerateSources(&fakeStore{roots: []Folder{root}}, nil, nil)
	if len(sources) != 2 {
		t.Fatalf("EnumerateSources yielded %d sources, want 2", len(sources))
	}
	if sources[0].Label != "Mailbox/Inbox" {
		t.Errorf("first label = %q, want %q", sources[0].Label, "Mailbox/Inbox")
	}
	if sources[1].Label != "Mailbox/Inbox/Archive" {
		t.Errorf("second label = %q, want %q", sources[1].Label, "Mailbox/Inbox/Archive")
	}
}

func TestEnumerateSources_CycleGuard(t *testing.T) {
	a := &fakeFolder{id: "a", name: "A", bearing: true}
	b := &fakeFolder{id: "b", name: "B", bearing: true}
	a.children = []Folder{b}
	b.children = []Folder{a} // re-linked back to its parent

	sources := EnumerateSources(&fakeStore{roots: []Folder{a}}, nil, nil)
	if len(sources) != 2 {
		t.Fatalf("cyclic hierarchy yielded %d sources, want 2", len(sources))
	}
}

func TestEnumerateSources_NonMessageFoldersTraversedNotYielded(t *testing.T) {
	mail := &fakeFolder{id: "m", name: "Mail", bearing: true}
	calendar := &fakeFolder{id: "c", name: "Calendar", bearing: false, children: []Folder{mail}}

	tr := trace.NewRecorder()
	sources := EnumerateSources(&fakeStore{roots: []Folder{calendar}}, tr, nil)
	if len(sources) != 1 {
		t.Fatalf("yielded %d sources, want 1", len(sources))
	}
	if sources[0].Label != "Calendar/Mail" {
		t.Errorf("label = %q, want %q", sources[0].Label, "Calendar/Mail")
	}
}

func TestEnumerateSources_DefaultInboxFallback(t *testing.T) {
	inbox := &fakeFolder{id: "inbox", name: "INBOX", bearing: true}
	st := &fakeStore{rootsErr: errors.New("no roots"), inbox: inbox}

	sources := EnumerateSources(st, nil, nil)
	if len(sources) != 1 {
		t.Fatalf("fallback yielded %d sources, want 1", len(sources))
	}
	if sources[0].Label != "DefaultInbox/INBOX" {
		t.Errorf("fallback label = %q, want %q", sources[0].Label, "DefaultInbox/INBOX")
	}
}

func TestEnumerateSources_NothingAtAll(t *testing.T) {
	st := &fakeStore{rootsErr: errors.New("no roots"), inboxErr: errors.New("no inbox")}
	if sources := EnumerateSources(st, nil, nil); len(sources) != 0 {
		t.Errorf("expected zero sources, got %d", len(sources))
	}
}

func TestEnumerateSources_ChildListFailureSkipsSubtree(t *testing.T) {
	broken := &fakeFolder{id: "x", name: "Broken", bearing: true, childErr: errors.New("gone")}
	ok := &fakeFolder{id: "y", name: "OK", bearing: true}
	sources := EnumerateSources(&fakeStore{roots: []Folder{broken, ok}}, nil, nil)
	if len(sources) != 2 {
		t.Fatalf("yielded %d sources, want 2", len(sources))
	}
}

func TestBuildEnvelope(t *testing.T) {
	received := time.Date(2024, 3, 1, 10, 2, 30, 0, time.UTC)
	msg := &fakeMessage{id: "m1", subject: "通知", received: received, body: "body"}

	env, err := BuildEnvelope(msg)
	if err != nil {
		t.Fatalf("BuildEnvelope error = %v", err)
	}
	if env.ID != "m1" || env.Subject != "通知" || env.Body != "body" {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if env.ReceivedAt.Location() != time.Local {
		t.Errorf("ReceivedAt should be local, got %v", env.ReceivedAt.Location())
	}

	got, ok := MessageOf(env)
	if !ok || got != Message(msg) {
		t.Error("MessageOf should recover the original message handle")
	}
}

func TestBuildEnvelope_BodyError(t *testing.T) {
	msg := &fakeMessage{id: "m1", bodyErr: errors.New("fetch failed")}
	if _, err := BuildEnvelope(msg); err == nil {
		t.Error("expected error when body read fails")
	}
}

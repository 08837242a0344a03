// Package store defines the message-store collaborator boundary: nested
// folders with identity and a message-bearing classification, time-window
// queries, and per-message field access. Implementations live in the imap
// and mbox packages.
package store

import (
	"context"
	"fmt"
	"time"

	"mailresolve/model"
	"mailresolve/normalize"
)

// Store exposes a message store's top-level containers.
type Store interface {
	Roots() ([]Folder, error)
	// DefaultInbox is the well-known inbox-equivalent container used when
	// folder enumeration yields nothing.
	DefaultInbox() (Folder, error)
}

// Folder is one message container. The time-window query is inclusive at
// both ends; the equivalent wire predicate on stores that take one is
// `receivedTime >= T1 AND receivedTime <= T2` with zone-naive local
// timestamps formatted as MM/DD/YYYY hh:mm AM|PM.
type Folder interface {
	ID() string
	Name() string
	MessageBearing() bool
	Children() ([]Folder, error)
	QueryWindow(ctx context.Context, start, end time.Time) ([]Message, error)
	// Recent returns up to limit messages, newest first.
	Recent(ctx context.Context, limit int) ([]Message, error)
}

// Message is one live message. Field accessors that need store round-trips
// return errors instead of panicking; the caller skips the message.
type Message interface {
	ID() string
	Subject() string
	// Sender is the sender's display name; SenderAddress the plain address.
	Sender() string
	SenderAddress() string
	ReceivedAt() time.Time
	Body() (string, error)
	Attachments() ([]Attachment, error)
	Recipients() ([]Recipient, error)
	// ReplyBody is the body a reply draft to this message would carry,
	// falling back to the original body when the store cannot draft one.
	ReplyBody() (string, error)
}

// Attachment is one file attached to a message.
type Attachment interface {
	Filename() string
	// SaveTo writes the attachment into dir and returns the file path.
	SaveTo(dir string) (string, error)
}

type RecipientKind int

const (
	RecipientTo RecipientKind = iota + 1
	RecipientCC
	RecipientBCC
)

// AddressAccessor is one strategy for extracting a recipient's address.
// Accessors are tried in order; the first non-empty result containing "@"
// wins.
type AddressAccessor struct {
	Name string
	Get  func() (string, error)
}

// Recipient resolves to an email address through an ordered accessor chain.
type Recipient interface {
	Kind() RecipientKind
	AddressAccessors() []AddressAccessor
}

// BuildEnvelope snapshots a live message into an immutable envelope. The
// received time is zone-normalized here so every later comparison is stable.
func BuildEnvelope(msg Message) (model.Envelope, error) {
	body, err := msg.Body()
	if err != nil {
		return model.Envelope{}, fmt.Errorf("read body of %s: %w", msg.ID(), err)
	}
	return model.Envelope{
		ID:         msg.ID(),
		Subject:    msg.Subject(),
		Sender:     msg.Sender(),
		ReceivedAt: normalize.Time(msg.ReceivedAt()),
		Body:       body,
		Handle:     msg,
	}, nil
}

// MessageOf recovers the live store message from an envelope handle.
func MessageOf(env model.Envelope) (Message, bool) {
	msg, ok := env.Handle.(Message)
	return msg, ok
}

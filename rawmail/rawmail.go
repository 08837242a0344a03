// Package rawmail decodes raw RFC 5322 messages into the pieces the engine
// needs: a plain-text body and decoded attachments.
package rawmail

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// Part is one decoded attachment.
type Part struct {
	Filename string
	Data     []byte
}

// Body extracts the text body of a raw message. Non-MIME messages fall back
// to a naive header/body split.
func Body(raw []byte) (string, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		_, body := SplitRaw(raw)
		return string(body), nil
	}

	var b strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read part: %w", err)
		}
		if h, ok := part.Header.(*mail.InlineHeader); ok {
			ct, _, _ := h.ContentType()
			if ct == "" || strings.HasPrefix(ct, "text/") {
				data, err := io.ReadAll(part.Body)
				if err != nil {
					return "", fmt.Errorf("read body part: %w", err)
				}
				b.Write(data)
			}
		}
	}
	return b.String(), nil
}

// Attachments decodes every attachment part of a raw message.
func Attachments(raw []byte) ([]Part, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// not a MIME message, so no attachments
		return nil, nil
	}

	var parts []Part
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read part: %w", err)
		}
		h, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, err := h.Filename()
		if err != nil || filename == "" {
			continue
		}
		data, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", filename, err)
		}
		parts = append(parts, Part{Filename: filename, Data: data})
	}
	return parts, nil
}

// SplitRaw splits a raw message into header and body regions.
func SplitRaw(raw []byte) (header, body []byte) {
	if len(raw) == 0 {
		return nil, nil
	}
	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}
	return raw, nil
}

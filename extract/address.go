package extract

import (
	"log/slog"
	"strings"

	"mailresolve/store"
)

// Metadata is the mail metadata recorded alongside a committed evidence row.
type Metadata struct {
	Sender    string
	CC        []string
	BCC       []string
	ReplyBody string
}

// CollectMetadata reads sender, Cc/Bcc addresses and the reply body from the
// live message. Per-recipient failures are logged and skipped.
func CollectMetadata(msg store.Message, logger *slog.Logger) Metadata {
	meta := Metadata{Sender: strings.TrimSpace(msg.SenderAddress())}

	recipients, err := msg.Recipients()
	if err != nil {
		if logger != nil {
			logger.Warn("recipient enumeration failed", "err", err)
		}
	}
	for _, r := range recipients {
		address := ResolveAddress(r, logger)
		if address == "" {
			continue
		}
		switch r.Kind() {
		case store.RecipientCC:
			meta.CC = append(meta.CC, address)
		case store.RecipientBCC:
			meta.BCC = append(meta.BCC, address)
		}
	}

	replyBody, err := msg.ReplyBody()
	if err != nil {
		if logger != nil {
			logger.Debug("reply body unavailable", "err", err)
		}
		replyBody = ""
	}
	meta.ReplyBody = replyBody

	if logger != nil {
		logger.Info("mail metadata collected",
			"sender", meta.Sender,
			"ccCount", len(meta.CC),
			"bccCount", len(meta.BCC),
			"replyLen", len(meta.ReplyBody))
	}
	return meta
}

// ResolveAddress walks the recipient's accessor chain in priority order and
// returns the first non-empty, syntactically plausible address. Results
// without an "@" are unresolved directory entries and are rejected.
func ResolveAddress(r store.Recipient, logger *slog.Logger) string {
	for _, acc := range r.AddressAccessors() {
		value, err := acc.Get()
		if err != nil {
			if logger != nil {
				logger.Debug("address accessor failed", "accessor", acc.Name, "err", err)
			}
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" || !strings.Contains(value, "@") {
			continue
		}
		return value
	}
	return ""
}

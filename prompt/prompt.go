// Package prompt is the human-selection collaborator: given the ranked
// candidate list, return exactly one selected index or an explicit
// cancellation.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"mailresolve/model"
)

// previewLimit caps the body preview shown per candidate.
const previewLimit = 2000

// Candidate is what the selector shows per ranked envelope.
type Candidate struct {
	Index      int
	ReceivedAt time.Time
	Subject    string
	Sender     string
	Preview    string
}

// Selector returns the zero-based index of the chosen candidate, or
// model.ErrUserCancelled.
type Selector interface {
	Select(candidates []Candidate) (int, error)
}

// Describe builds the display form of a ranked envelope.
func Describe(env model.Envelope, index int) Candidate {
	preview := strings.TrimSpace(env.Body)
	if runes := []rune(preview); len(runes) > previewLimit {
		preview = string(runes[:previewLimit]) + "..."
	}
	if preview == "" {
		preview = "(no body)"
	}
	return Candidate{
		Index:      index,
		ReceivedAt: env.ReceivedAt,
		Subject:    env.Subject,
		Sender:     env.Sender,
		Preview:    preview,
	}
}

const cancelOption = "Cancel"

// TerminalSelector prompts on the terminal with an interactive list.
type TerminalSelector struct{}

func NewTerminalSelector() *TerminalSelector {
	return &TerminalSelector{}
}

func (s *TerminalSelector) Select(candidates []Candidate) (int, error) {
	if len(candidates) == 0 {
		return 0, model.ErrUserCancelled
	}

	for _, c := range candidates {
		pterm.DefaultSection.Printf("%d: %s | %s | %s",
			c.Index+1, c.ReceivedAt.Format("2006-01-02 15:04"), c.Subject, c.Sender)
		pterm.Println(c.Preview)
	}

	options := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		options = append(options, fmt.Sprintf("%d: %s | %s | %s",
			c.Index+1, c.ReceivedAt.Format("2006-01-02 15:04"), c.Subject, c.Sender))
	}
	options = append(options, cancelOption)

	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithMaxHeight(12).
		Show("Which message should be handled?")
	return resolveChoice(options[:len(candidates)], choice, err)
}

// resolveChoice maps the interactive-select outcome to a candidate index.
// Cancellation is the explicit cancel option or an unrecognized choice;
// prompt I/O failures are surfaced as errors in their own right.
func resolveChoice(options []string, choice string, err error) (int, error) {
	if err != nil {
		return 0, fmt.Errorf("interactive select: %w", err)
	}
	if choice == cancelOption {
		return 0, model.ErrUserCancelled
	}
	for i, option := range options {
		if option == choice {
			return i, nil
		}
	}
	return 0, model.ErrUserCancelled
}

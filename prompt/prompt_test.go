package prompt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"mailresolve/model"
)

func TestDescribe(t *testing.T) {
	env := model.Envelope{
		Subject:    "訃報のお知らせ",
		Sender:     "総務部",
		ReceivedAt: time.Date(2024, 3, 1, 10, 2, 30, 0, time.Local),
		Body:       "  本文です  ",
	}

	c := Describe(env, 3)
	if c.Index != 3 || c.Subject != env.Subject || c.Sender != env.Sender {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if c.Preview != "本文です" {
		t.Errorf("preview = %q, want trimmed body", c.Preview)
	}
}

func TestDescribe_EmptyBody(t *testing.T) {
	c := Describe(model.Envelope{Body: "   "}, 0)
	if c.Preview != "(no body)" {
		t.Errorf("preview = %q, want placeholder", c.Preview)
	}
}

func TestDescribe_LongBodyTruncated(t *testing.T) {
	c := Describe(model.Envelope{Body: strings.Repeat("あ", 3000)}, 0)
	runes := []rune(c.Preview)
	if len(runes) != previewLimit+3 {
		t.Errorf("preview length = %d runes, want %d plus ellipsis", len(runes), previewLimit)
	}
	if !strings.HasSuffix(c.Preview, "...") {
		t.Error("truncated preview should end with ellipsis")
	}
}

func TestTerminalSelector_EmptyList(t *testing.T) {
	s := NewTerminalSelector()
	if _, err := s.Select(nil); err != model.ErrUserCancelled {
		t.Errorf("empty candidate list: err = %v, want ErrUserCancelled", err)
	}
}

func TestResolveChoice(t *testing.T) {
	options := []string{"1: first", "2: second"}

	idx, err := resolveChoice(options, "2: second", nil)
	if err != nil || idx != 1 {
		t.Errorf("resolveChoice = (%d, %v), want (1, nil)", idx, err)
	}

	if _, err := resolveChoice(options, cancelOption, nil); err != model.ErrUserCancelled {
		t.Errorf("cancel option: err = %v, want ErrUserCancelled", err)
	}

	if _, err := resolveChoice(options, "3: unknown", nil); err != model.ErrUserCancelled {
		t.Errorf("unknown choice: err = %v, want ErrUserCancelled", err)
	}
}

func TestResolveChoice_PromptFailureIsNotCancellation(t *testing.T) {
	promptErr := errors.New("stdin is not a terminal")
	_, err := resolveChoice([]string{"1: first"}, "", promptErr)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, model.ErrUserCancelled) {
		t.Error("a prompt I/O failure must not read as user cancellation")
	}
	if !errors.Is(err, promptErr) {
		t.Errorf("err = %v, want it to wrap the prompt failure", err)
	}
}

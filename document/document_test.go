package document

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mailresolve/model"
)

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.xlsx"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var derr *model.DocumentError
	if !errors.As(err, &derr) || derr.Op != "open" {
		t.Errorf("err = %v, want *model.DocumentError with op open", err)
	}
}

func TestOpenWithRetry_ExhaustsAttempts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.xlsx")
	start := time.Now()
	_, err := OpenWithRetry(path, 3, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected error past the attempt cap")
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("err = %v, want attempt count in message", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("elapsed = %v, want at least two sleep intervals", elapsed)
	}
	var derr *model.DocumentError
	if !errors.As(err, &derr) {
		t.Errorf("err should wrap the last *model.DocumentError, got %v", err)
	}
}

func TestOpenWithRetry_NormalizesAttempts(t *testing.T) {
	// Zero or negative attempt counts still make one try.
	_, err := OpenWithRetry(filepath.Join(t.TempDir(), "absent.xlsx"), 0, time.Millisecond)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "1 attempts") {
		t.Errorf("err = %v, want a single attempt reported", err)
	}
}

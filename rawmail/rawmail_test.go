package rawmail

import (
	"strings"
	"testing"
)

const multipartMessage = "From: a@example.com\r\n" +
	"To: b@example.com\r\n" +
	"Subject: with attachment\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"BOUNDARY\"\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"body text\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: application/octet-stream\r\n" +
	"Content-Disposition: attachment; filename=\"list.xlsx\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"aGVsbG8=\r\n" +
	"--BOUNDARY--\r\n"

func TestBody_Multipart(t *testing.T) {
	body, err := Body([]byte(multipartMessage))
	if err != nil {
		t.Fatalf("Body error = %v", err)
	}
	if !strings.Contains(body, "body text") {
		t.Errorf("body = %q", body)
	}
	if strings.Contains(body, "aGVsbG8") {
		t.Error("attachment content leaked into the body")
	}
}

func TestAttachments_Multipart(t *testing.T) {
	parts, err := Attachments([]byte(multipartMessage))
	if err != nil {
		t.Fatalf("Attachments error = %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("got %d attachments, want 1", len(parts))
	}
	if parts[0].Filename != "list.xlsx" {
		t.Errorf("filename = %q", parts[0].Filename)
	}
	if string(parts[0].Data) != "hello" {
		t.Errorf("data = %q, want base64-decoded content", parts[0].Data)
	}
}

func TestBody_PlainMessage(t *testing.T) {
	raw := "From: a@example.com\r\nSubject: plain\r\n\r\nhello plain\r\n"
	body, err := Body([]byte(raw))
	if err != nil {
		t.Fatalf("Body error = %v", err)
	}
	if !strings.Contains(body, "hello plain") {
		t.Errorf("body = %q", body)
	}
}

func TestSplitRaw(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantHeader string
		wantBody   string
	}{
		{"crlf", "A: 1\r\n\r\nbody", "A: 1", "body"},
		{"lf", "A: 1\n\nbody", "A: 1", "body"},
		{"no body", "A: 1", "A: 1", ""},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body := SplitRaw([]byte(tt.raw))
			if string(header) != tt.wantHeader || string(body) != tt.wantBody {
				t.Errorf("SplitRaw(%q) = (%q, %q), want (%q, %q)",
					tt.raw, header, body, tt.wantHeader, tt.wantBody)
			}
		})
	}
}

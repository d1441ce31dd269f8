package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// minimalPDF is enough for content sniffing to recognise a PDF.
var minimalPDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func rejectedReason(t *testing.T, err error) Reason {
	t.Helper()
	var re *RejectedError
	if !errors.As(err, &re) {
		t.Fatalf("error %v is not a *RejectedError", err)
	}
	return re.Reason
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		doc    Document
		reason Reason
	}{
		{"valid pdf", Document{Name: "a.pdf", MIMEType: MIMEPDF, Data: minimalPDF}, ""},
		{"no declared type", Document{Name: "a.pdf", Data: minimalPDF}, ""},
		{"empty", Document{Name: "a.pdf", MIMEType: MIMEPDF}, ReasonEmpty},
		{"plain text", Document{Name: "a.txt", MIMEType: "text/plain", Data: []byte("hello world")}, ReasonUnsupported},
		{"pdf declared as image", Document{Name: "a.png", MIMEType: "image/png", Data: minimalPDF}, ReasonUnsupported},
		{"six MiB", Document{Name: "big.pdf", MIMEType: MIMEPDF, Data: append(append([]byte{}, minimalPDF...), make([]byte, 6*1024*1024)...)}, ReasonTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.doc)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("Check() = %v, want nil", err)
				}
				return
			}
			if got := rejectedReason(t, err); got != tt.reason {
				t.Errorf("reason = %q, want %q", got, tt.reason)
			}
		})
	}
}

func TestSingle(t *testing.T) {
	doc := Document{Name: "a.pdf", Data: minimalPDF}
	if _, err := Single(nil); rejectedReason(t, err) != ReasonFileCount {
		t.Error("no files should be rejected with file_count")
	}
	if _, err := Single([]Document{doc, doc}); rejectedReason(t, err) != ReasonFileCount {
		t.Error("two files should be rejected with file_count")
	}
	got, err := Single([]Document{doc})
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if got.MIMEType != MIMEPDF {
		t.Errorf("MIMEType = %q, want %q", got.MIMEType, MIMEPDF)
	}
}

func TestDecode(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString(minimalPDF)

	t.Run("raw base64", func(t *testing.T) {
		d, err := Decode("a.pdf", MIMEPDF, raw)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !bytes.Equal(d.Data, minimalPDF) {
			t.Error("decoded bytes differ")
		}
	})

	t.Run("data url", func(t *testing.T) {
		d, err := Decode("a.pdf", "", "data:application/pdf;base64,"+raw)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if d.MIMEType != MIMEPDF {
			t.Errorf("MIMEType = %q, want %q", d.MIMEType, MIMEPDF)
		}
		if d.DataURL() != "data:application/pdf;base64,"+raw {
			t.Error("DataURL does not round-trip")
		}
	})

	t.Run("malformed data url", func(t *testing.T) {
		_, err := Decode("a.pdf", "", "data:application/pdf,"+raw)
		if rejectedReason(t, err) != ReasonEncoding {
			t.Error("want encoding rejection")
		}
	})

	t.Run("bad base64", func(t *testing.T) {
		_, err := Decode("a.pdf", MIMEPDF, "%%%not base64%%%")
		if rejectedReason(t, err) != ReasonEncoding {
			t.Error("want encoding rejection")
		}
	})

	t.Run("oversized payload is rejected before decoding", func(t *testing.T) {
		huge := base64.StdEncoding.EncodeToString(make([]byte, 6*1024*1024))
		_, err := Decode("big.pdf", MIMEPDF, huge)
		if rejectedReason(t, err) != ReasonTooLarge {
			t.Error("want too_large rejection")
		}
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "notes.pdf")
	if err := os.WriteFile(good, minimalPDF, 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Open(good)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.Name != "notes.pdf" {
		t.Errorf("Name = %q, want notes.pdf", d.Name)
	}

	big := filepath.Join(dir, "big.pdf")
	if err := os.WriteFile(big, make([]byte, MaxDocumentBytes+1), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(big); rejectedReason(t, err) != ReasonTooLarge {
		t.Error("want too_large rejection")
	}

	if _, err := Open(filepath.Join(dir, "missing.pdf")); err == nil || IsRejected(err) {
		t.Errorf("missing file should be a plain I/O error, got %v", err)
	}
}

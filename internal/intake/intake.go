// Package intake accepts the single source document a quiz is generated from.
// Oversized and unsupported files are rejected here, before any model call.
package intake

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxDocumentBytes is the size ceiling for an uploaded document (5 MiB).
const MaxDocumentBytes = 5 * 1024 * 1024

// MIMEPDF is the only document type the generator accepts.
const MIMEPDF = "application/pdf"

var supportedTypes = []string{MIMEPDF}

// Reason classifies why a document was rejected.
type Reason string

const (
	ReasonTooLarge    Reason = "too_large"
	ReasonUnsupported Reason = "unsupported_type"
	ReasonEmpty       Reason = "empty"
	ReasonFileCount   Reason = "file_count"
	ReasonEncoding    Reason = "encoding"
)

// RejectedError is returned for any document that must not reach the model.
type RejectedError struct {
	Reason Reason
	Detail string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("document rejected (%s): %s", e.Reason, e.Detail)
}

func reject(reason Reason, format string, args ...any) error {
	return &RejectedError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// IsRejected reports whether err is (or wraps) a *RejectedError.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// Document is a source file ready to be sent to the model.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the decoded size in bytes.
func (d Document) Size() int64 {
	return int64(len(d.Data))
}

// Base64 returns the standard base64 encoding of the content.
func (d Document) Base64() string {
	return base64.StdEncoding.EncodeToString(d.Data)
}

// DataURL returns the content as a data: URL, the form multimodal chat APIs accept.
func (d Document) DataURL() string {
	return "data:" + d.MIMEType + ";base64," + d.Base64()
}

// Check validates size and type. The declared MIME type, if any, must agree
// with what the content sniffs as.
func Check(d Document) error {
	if len(d.Data) == 0 {
		return reject(ReasonEmpty, "%s is empty", displayName(d.Name))
	}
	if d.Size() > MaxDocumentBytes {
		return reject(ReasonTooLarge, "%s is %d bytes, limit is %d", displayName(d.Name), d.Size(), MaxDocumentBytes)
	}
	detected := mimetype.Detect(d.Data)
	if !detected.Is(MIMEPDF) {
		return reject(ReasonUnsupported, "%s looks like %s, only PDF is supported", displayName(d.Name), detected.String())
	}
	if d.MIMEType != "" && !isSupported(d.MIMEType) {
		return reject(ReasonUnsupported, "declared type %s is not supported", d.MIMEType)
	}
	return nil
}

// Single enforces the one-file rule and checks that file.
func Single(docs []Document) (Document, error) {
	if len(docs) != 1 {
		return Document{}, reject(ReasonFileCount, "expected exactly one document, got %d", len(docs))
	}
	d := docs[0]
	if d.MIMEType == "" {
		d.MIMEType = MIMEPDF
	}
	if err := Check(d); err != nil {
		return Document{}, err
	}
	return d, nil
}

// Decode builds a Document from base64 content as a browser sends it: either
// raw base64 or a data: URL. The size ceiling is enforced before decoding.
func Decode(name, mimeType, encoded string) (Document, error) {
	payload := encoded
	if strings.HasPrefix(payload, "data:") {
		header, body, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return Document{}, reject(ReasonEncoding, "malformed data URL for %s", displayName(name))
		}
		if mimeType == "" {
			mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
		payload = body
	}
	payload = strings.TrimSpace(payload)
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxDocumentBytes+2 {
		return Document{}, reject(ReasonTooLarge, "%s exceeds %d bytes", displayName(name), MaxDocumentBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Document{}, reject(ReasonEncoding, "%s is not valid base64: %v", displayName(name), err)
	}
	return Document{Name: name, MIMEType: mimeType, Data: data}, nil
}

// Open reads a document from disk, refusing oversized files before reading them.
func Open(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Document{}, reject(ReasonFileCount, "%s is a directory", path)
	}
	if info.Size() > MaxDocumentBytes {
		return Document{}, reject(ReasonTooLarge, "%s is %d bytes, limit is %d", filepath.Base(path), info.Size(), MaxDocumentBytes)
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxDocumentBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	d := Document{Name: filepath.Base(path), MIMEType: MIMEPDF, Data: data}
	if err := Check(d); err != nil {
		return Document{}, err
	}
	return d, nil
}

func isSupported(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	for _, t := range supportedTypes {
		if base == t {
			return true
		}
	}
	return false
}

func displayName(name string) string {
	if name == "" {
		return "document"
	}
	return name
}

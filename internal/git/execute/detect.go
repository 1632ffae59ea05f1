package execute

import (
	"bytes"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// sniffLimit bounds how much of a buffer the detector inspects.
const sniffLimit = 4096

// DetectionResult is the best-effort MIME type and charset guess for a
// raw object buffer.
type DetectionResult struct {
	MimeType string
	Encoding string // IANA charset name; empty when binary
}

// DetectMimeAndEncoding inspects the first 4KB of buf. A NUL byte is
// treated as a binary signal; otherwise BOM markers pick the charset and
// the content defaults to UTF-8 text.
func DetectMimeAndEncoding(buf []byte) DetectionResult {
	sample := buf
	if len(sample) > sniffLimit {
		sample = sample[:sniffLimit]
	}

	switch {
	case bytes.HasPrefix(sample, []byte{0xEF, 0xBB, 0xBF}):
		return DetectionResult{MimeType: "text/plain", Encoding: "utf-8"}
	case bytes.HasPrefix(sample, []byte{0xFF, 0xFE}):
		return DetectionResult{MimeType: "text/plain", Encoding: "utf-16le"}
	case bytes.HasPrefix(sample, []byte{0xFE, 0xFF}):
		return DetectionResult{MimeType: "text/plain", Encoding: "utf-16be"}
	}

	if bytes.IndexByte(sample, 0) >= 0 {
		return DetectionResult{MimeType: "application/octet-stream"}
	}
	return DetectionResult{MimeType: "text/plain", Encoding: "utf-8"}
}

// Decode converts raw output bytes to a string using the named charset.
// Unknown or unsupported encodings, and decode failures, fall back to
// interpreting the bytes as UTF-8.
func Decode(buf []byte, name string) string {
	switch name {
	case "", "utf-8", "utf8", "UTF-8":
		return string(buf)
	}

	enc, err := htmlindex.Get(name)
	if err != nil || enc == nil || enc == unicode.UTF8 {
		return string(buf)
	}
	decoded, err := enc.NewDecoder().Bytes(buf)
	if err != nil {
		return string(buf)
	}
	return string(decoded)
}

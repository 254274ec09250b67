package components

import (
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// FileKind is the detected content type of a file
type FileKind struct {
	MIME string
	// Kind is a coarse label: Image, Video, Audio, Archive, Document, Text or Binary
	Kind string
}

func (k FileKind) String() string {
	if k.MIME == "" {
		return k.Kind
	}
	return k.Kind + " (" + k.MIME + ")"
}

// KindDetector sniffs file content once per path. Duplicates share content,
// so callers usually detect the first member of a group and reuse the result.
type KindDetector struct {
	mu    sync.Mutex
	cache map[string]FileKind
}

// NewKindDetector creates a KindDetector
func NewKindDetector() *KindDetector {
	return &KindDetector{cache: make(map[string]FileKind)}
}

// Detect returns the kind of the file at path. Unreadable files report
// "Unknown".
func (d *KindDetector) Detect(path string) FileKind {
	d.mu.Lock()
	if k, ok := d.cache[path]; ok {
		d.mu.Unlock()
		return k
	}
	d.mu.Unlock()

	k := FileKind{Kind: "Unknown"}
	if m, err := mimetype.DetectFile(path); err == nil {
		k = KindOf(m.String())
	}

	d.mu.Lock()
	d.cache[path] = k
	d.mu.Unlock()
	return k
}

var archiveMIMEs = []string{
	"application/zip", "application/gzip", "application/x-tar", "application/x-7z-compressed",
	"application/x-rar-compressed", "application/x-xz", "application/x-bzip2", "application/zstd",
}

var documentMIMEs = []string{
	"application/pdf", "application/msword", "application/rtf", "application/epub+zip",
	"application/vnd.openxmlformats-officedocument", "application/vnd.oasis.opendocument",
	"application/vnd.ms-excel", "application/vnd.ms-powerpoint",
}

// KindOf maps a MIME type to a coarse kind
func KindOf(mime string) FileKind {
	base, _, _ := strings.Cut(mime, ";")
	base = strings.TrimSpace(base)
	k := FileKind{MIME: base, Kind: "Binary"}

	switch {
	case strings.HasPrefix(base, "image/"):
		k.Kind = "Image"
	case strings.HasPrefix(base, "video/"):
		k.Kind = "Video"
	case strings.HasPrefix(base, "audio/"):
		k.Kind = "Audio"
	case hasAnyPrefix(base, documentMIMEs):
		k.Kind = "Document"
	case hasAnyPrefix(base, archiveMIMEs):
		k.Kind = "Archive"
	case strings.HasPrefix(base, "text/"), base == "application/json", base == "application/xml":
		k.Kind = "Text"
	}
	return k
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Package mimetype detects binary content via magic bytes and maps file
// extensions to MIME types, layering a small overlay table over the
// standard library's extension lookup for types it does not know about.
package mimetype

import (
	"bytes"
	"mime"
	"path/filepath"
	"strings"
)

// magicPrefixes are checked in order against the start of the content.
var magicPrefixes = [][]byte{
	{0x89, 0x50, 0x4E, 0x47}, // PNG
	{0xFF, 0xD8, 0xFF},       // JPEG
	{0x47, 0x49, 0x46, 0x38}, // GIF8
	{0x50, 0x4B, 0x03, 0x04}, // ZIP (also docx/xlsx/jar)
	{0x25, 0x50, 0x44, 0x46}, // %PDF
	{0x7F, 0x45, 0x4C, 0x46}, // ELF
	{0x4D, 0x5A},             // MZ (PE/DOS executable)
}

const sniffWindow = 8192

// IsBinary reports whether content begins with a known binary magic prefix
// or contains a null byte within the first 8192 bytes.
func IsBinary(content []byte) bool {
	for _, prefix := range magicPrefixes {
		if bytes.HasPrefix(content, prefix) {
			return true
		}
	}
	window := content
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}
	return bytes.IndexByte(window, 0x00) >= 0
}

// overlay maps extensions the standard library's mime package does not
// reliably resolve (or resolves differently than this system wants).
var overlay = map[string]string{
	".md":      "text/markdown",
	".markdown": "text/markdown",
	".rst":     "text/x-rst",
	".yaml":    "application/yaml",
	".yml":     "application/yaml",
	".toml":    "application/toml",
	".json":    "application/json",
	".jsonl":   "application/jsonl",
	".jsx":     "text/jsx",
	".tsx":     "text/tsx",
	".vue":     "text/x-vue",
	".svelte":  "text/x-svelte",
	".astro":   "text/x-astro",
	".mdx":     "text/mdx",
}

// MimeFor returns the MIME type for a path, consulting the overlay table
// first, then the standard extension-to-MIME lookup, defaulting to
// text/plain for anything unrecognized or for an empty path.
func MimeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}
	if m, ok := overlay[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		if i := strings.Index(m, ";"); i >= 0 {
			m = m[:i]
		}
		return strings.TrimSpace(m)
	}
	return "text/plain"
}

// Package model defines the data shapes exchanged between the sync engine
// and the host: file descriptors, change sets, and the batch records
// emitted over the course of a crawl.
package model

import (
	"bytes"
	"encoding/json"
)

// FileDescriptor is a single emitted record describing one file's content
// at the time it was read.
type FileDescriptor struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	SourceURL   string `json:"source_url"`
	Description string `json:"description"`
}

// Rename pairs an old path with its new path, detected via identical blob
// content across a tree diff.
type Rename struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ChangeSet is the result of diffing two commit trees, filtered by the
// configuration's subdir and extension rules. Deletions are tracked for
// completeness but never enumerated for emission (§4.G).
type ChangeSet struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
	Renamed  []Rename `json:"renamed"`
}

// IsEmpty reports whether the change set carries no changes at all.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0 && len(c.Renamed) == 0
}

// EmissionPaths returns the paths that should be re-read and emitted for
// this change set: added, modified, and the new side of every rename.
func (c ChangeSet) EmissionPaths() []string {
	paths := make([]string, 0, len(c.Added)+len(c.Modified)+len(c.Renamed))
	paths = append(paths, c.Added...)
	paths = append(paths, c.Modified...)
	for _, r := range c.Renamed {
		paths = append(paths, r.New)
	}
	return paths
}

// Status is the lifecycle state of an emitted batch record.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Record is one emitted unit of the host-facing crawl operation (§6).
type Record struct {
	Items     []FileDescriptor `json:"items"`
	Status    Status           `json:"status"`
	Total     int              `json:"total"`
	Completed int              `json:"completed"`
}

// ToJSON serializes v with Unicode preserved verbatim (no ASCII-escaping)
// and deterministic field order, matching the original implementation's
// ensure_ascii=False behavior.
func ToJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// json.Encoder.Encode appends a trailing newline; trim it so callers get
	// a clean byte string suitable for storage or wire transmission.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// FromJSON deserializes data into a new value of type T.
func FromJSON[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

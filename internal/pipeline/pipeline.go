// Package pipeline streams blob reads into batched File Descriptors,
// grounded on git_website_crawl.py's batching loop (BATCH_SIZE = 50, a
// 5 MiB per-file size cap) and on the Design Notes' call for a tagged
// variant over a (bytes, error, skipped bool) tuple.
package pipeline

import (
	"context"
	"unicode/utf8"

	"github.com/asukhodko/git-datasource/internal/gitrepo"
	"github.com/asukhodko/git-datasource/internal/mimetype"
	"github.com/asukhodko/git-datasource/internal/model"
	"github.com/asukhodko/git-datasource/internal/pathutil"
	"github.com/asukhodko/git-datasource/internal/urlutil"
)

func isValidUTF8(b []byte) bool { return utf8.Valid(b) }

// BatchSize is the number of File Descriptors per emitted batch.
const BatchSize = 50

// MaxFileSize is the per-file content size cap; larger files are
// permanently skipped rather than emitted.
const MaxFileSize = 5 * 1024 * 1024

// BlobReader is the subset of gitrepo.Graph this package depends on.
type BlobReader interface {
	ReadBlob(sha, path string) ([]byte, error)
}

var _ BlobReader = (*gitrepo.Graph)(nil)

// ReadResult is a closed tagged variant over the outcome of reading and
// classifying a single path: exactly one of ReadOK, ReadPermanentSkip, or
// ReadTransientFail.
type ReadResult interface {
	isReadResult()
}

// ReadOK is a successfully read and decoded file ready for emission.
type ReadOK struct {
	Descriptor model.FileDescriptor
}

// ReadPermanentSkip is a path that will never succeed under the current
// configuration: not found, binary, non-UTF-8, or oversized. It is
// logged but not added to the retryable failed-paths set.
type ReadPermanentSkip struct {
	Path   string
	Reason string
}

// ReadTransientFail is a path whose read failed for a reason that may
// succeed on a future run (transport/IO error). Added to the run's
// failed-paths set for retry.
type ReadTransientFail struct {
	Path   string
	Reason string
}

func (ReadOK) isReadResult()            {}
func (ReadPermanentSkip) isReadResult() {}
func (ReadTransientFail) isReadResult() {}

// Batch is one unit of streamed output: the descriptors ready for
// emission, the paths that failed transiently during this batch, and the
// cumulative number of paths attempted so far (across all batches).
type Batch struct {
	Items             []model.FileDescriptor
	TransientFailures []string
	Attempted         int
}

// Stream classifies and batches blob reads for an ordered path list.
type Stream struct {
	Reader     BlobReader
	SHA        string
	ConfigHash string
	RepoURL    string
	Branch     string
	BatchSize  int

	// OnSkip, if set, is invoked for every permanently skipped path with
	// its classification reason, so a caller can log and count it without
	// the skip itself ever entering a batch or the failed_paths set.
	OnSkip func(path, reason string)
}

// NewStream builds a Stream reading from sha via reader, tagging emitted
// descriptors with configHash and a human-readable repoURL@branch
// description.
func NewStream(reader BlobReader, sha, configHash, repoURL, branch string) *Stream {
	return &Stream{Reader: reader, SHA: sha, ConfigHash: configHash, RepoURL: repoURL, Branch: branch, BatchSize: BatchSize}
}

// Run classifies each path in order, accumulating File Descriptors and
// transient failures into batches of s.BatchSize, invoking yield whenever
// a batch fills or (for the final, possibly partial, batch) after the
// last path. ctx is checked at each path boundary for prompt
// cancellation.
func (s *Stream) Run(ctx context.Context, paths []string, yield func(Batch) error) error {
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = BatchSize
	}

	var current Batch
	attempted := 0
	flushedAt := 0

	flush := func() error {
		current.Attempted = attempted
		flushedAt = attempted
		err := yield(current)
		current = Batch{}
		return err
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		attempted++
		result := s.classify(path)
		switch r := result.(type) {
		case ReadOK:
			current.Items = append(current.Items, r.Descriptor)
		case ReadTransientFail:
			current.TransientFailures = append(current.TransientFailures, r.Path)
		case ReadPermanentSkip:
			if s.OnSkip != nil {
				s.OnSkip(r.Path, r.Reason)
			}
		}

		if len(current.Items) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if len(current.Items) > 0 || len(current.TransientFailures) > 0 || attempted > flushedAt {
		return flush()
	}
	return nil
}

// classify applies the four-step per-path read-and-filter logic: path
// normalization, blob read with binary/UTF-8/not-found classification,
// size cap, then File Descriptor construction.
func (s *Stream) classify(path string) ReadResult {
	normalized, err := pathutil.NormalizePath(path)
	if err != nil {
		return ReadPermanentSkip{Path: path, Reason: "traversal"}
	}

	content, err := s.Reader.ReadBlob(s.SHA, normalized)
	if err != nil {
		if err == gitrepo.ErrBlobNotFound {
			return ReadPermanentSkip{Path: normalized, Reason: "not_found"}
		}
		return ReadTransientFail{Path: normalized, Reason: err.Error()}
	}

	if mimetype.IsBinary(content) {
		return ReadPermanentSkip{Path: normalized, Reason: "binary"}
	}

	if !isValidUTF8(content) {
		return ReadPermanentSkip{Path: normalized, Reason: "non_utf8"}
	}

	if len(content) > MaxFileSize {
		return ReadPermanentSkip{Path: normalized, Reason: "too_large"}
	}

	return ReadOK{Descriptor: model.FileDescriptor{
		Title:       normalized,
		Content:     string(content),
		SourceURL:   "git:" + s.ConfigHash + ":" + normalized,
		Description: "Git: " + urlutil.MaskURL(s.RepoURL) + " @ " + s.Branch,
	}}
}

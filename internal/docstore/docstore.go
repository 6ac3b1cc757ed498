// Package docstore addresses stored resume documents by key. Keys follow the
// convention category/jobId/candidateId.ext and resolve to files under a root
// directory.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultJobID is assigned to documents whose key does not follow the
// three-segment convention.
const DefaultJobID = "default-job"

var (
	ErrNotFound   = errors.New("document not found")
	ErrInvalidKey = errors.New("invalid document key")
)

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".rtf":  true,
	".odt":  true,
}

// Supported reports whether the key names a textual document format the
// extractor can read.
func Supported(key string) bool {
	return supportedExtensions[strings.ToLower(path.Ext(key))]
}

// Ref is the job and candidate a document key refers to.
type Ref struct {
	JobID       string
	CandidateID string
	// Matched is false when the key did not follow the convention and the ids
	// were defaulted.
	Matched bool
}

// ParseKey derives the job and candidate ids from a document key. A key with
// exactly three non-empty segments yields the middle segment as the job id
// and the file name without its extension as the candidate id. Anything else
// yields DefaultJobID and a generated candidate id.
func ParseKey(key string) Ref {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	if len(parts) == 3 && parts[0] != "" && parts[1] != "" {
		name := strings.TrimSuffix(parts[2], path.Ext(parts[2]))
		if name != "" {
			return Ref{JobID: parts[1], CandidateID: name, Matched: true}
		}
	}
	return Ref{JobID: DefaultJobID, CandidateID: uuid.NewString()}
}

// FileStore reads documents from a directory tree.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Path resolves key to a file path under the root. Keys that would escape
// the root are rejected.
func (s *FileStore) Path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Get returns the document bytes for key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether a regular file is stored under key.
func (s *FileStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.Path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat document %s: %w", key, err)
	}
	return info.Mode().IsRegular(), nil
}

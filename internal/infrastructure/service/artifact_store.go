// Package service contains the orchestration services of the analytics
// core: the report engine that materializes definitions into artifacts,
// and the export service that drains the raw-data export queue.
package service

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ══════════════════════════════════════════════════════════════════════════════
// ARTIFACT STORE
// ══════════════════════════════════════════════════════════════════════════════

// ArtifactStore writes rendered artifacts to a directory and addresses
// them by content checksum, so re-rendering identical content yields
// the same reference instead of a duplicate file.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates the artifact directory if needed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "./artifacts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact store: failed to create directory: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Put stores the data and returns its content-addressed reference.
func (s *ArtifactStore) Put(data []byte, ext string) (ref string, size int64, err error) {
	sum := blake2b.Sum256(data)
	ref = hex.EncodeToString(sum[:16]) + "." + strings.TrimPrefix(ext, ".")

	path := filepath.Join(s.dir, ref)
	if _, statErr := os.Stat(path); statErr == nil {
		// Same content already stored.
		return ref, int64(len(data)), nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", 0, fmt.Errorf("artifact store: failed to write artifact: %w", err)
	}
	return ref, int64(len(data)), nil
}

// Get reads an artifact back by reference.
func (s *ArtifactStore) Get(ref string) ([]byte, error) {
	if strings.Contains(ref, "/") || strings.Contains(ref, "..") {
		return nil, fmt.Errorf("artifact store: invalid reference %q", ref)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("artifact store: failed to read artifact: %w", err)
	}
	return data, nil
}

// Path returns the filesystem path of a reference.
func (s *ArtifactStore) Path(ref string) string {
	return filepath.Join(s.dir, ref)
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaywantadh/RelayByte/internal/compressor"
)

// LocalStore implements the Store interface on the local filesystem.
// Blobs live under <basePath>/<transferId>/<chunkIndex>.chunk, lz4-framed.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a new LocalStore instance.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Put stores one chunk blob. The returned ref is the path relative to the
// store root; distinct (transferID, chunkIndex) pairs never collide.
func (s *LocalStore) Put(transferID string, chunkIndex int, data []byte) (string, error) {
	if err := validateTransferID(transferID); err != nil {
		return "", err
	}
	if chunkIndex < 0 {
		return "", fmt.Errorf("chunk index must be non-negative, got %d", chunkIndex)
	}

	dir := filepath.Join(s.basePath, transferID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create transfer directory: %w", err)
	}

	compressed, err := compressor.CompressChunk(data)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d.chunk", chunkIndex)
	if err := os.WriteFile(filepath.Join(dir, name), compressed, 0644); err != nil {
		return "", fmt.Errorf("failed to write chunk to file: %w", err)
	}

	return transferID + "/" + name, nil
}

// Get retrieves and decompresses a chunk blob by ref.
func (s *LocalStore) Get(ref string) ([]byte, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	compressed, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("chunk not found: %s", ref)
		}
		return nil, fmt.Errorf("failed to read chunk file: %w", err)
	}
	return compressor.DecompressChunk(compressed)
}

// Delete removes a chunk blob. The transfer directory is pruned once its
// last chunk is gone.
func (s *LocalStore) Delete(ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete chunk file: %w", err)
	}
	// Best-effort: fails while sibling chunks remain.
	os.Remove(filepath.Dir(path))
	return nil
}

func (s *LocalStore) resolve(ref string) (string, error) {
	if ref == "" || strings.Contains(ref, "..") || strings.HasPrefix(ref, "/") {
		return "", fmt.Errorf("invalid storage ref: %q", ref)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(ref)), nil
}

func validateTransferID(transferID string) error {
	if transferID == "" {
		return fmt.Errorf("transfer id is required")
	}
	if strings.ContainsAny(transferID, `/\`) || strings.Contains(transferID, "..") {
		return fmt.Errorf("invalid transfer id: %q", transferID)
	}
	return nil
}

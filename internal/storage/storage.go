package storage

// Store defines the interface for persisting per-chunk temporary blobs.
type Store interface {
	// Put stores one chunk under (transferID, chunkIndex) and returns its storage ref.
	Put(transferID string, chunkIndex int, data []byte) (string, error)
	// Get retrieves a chunk by its storage ref.
	Get(ref string) ([]byte, error)
	// Delete removes a chunk by its storage ref.
	Delete(ref string) error
}

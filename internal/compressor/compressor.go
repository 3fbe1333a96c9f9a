package compressor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// CompressChunk frames chunkData with lz4. Chunk blobs are recovery spill,
// so they are compressed at rest regardless of content type.
func CompressChunk(chunkData []byte) ([]byte, error) {
	var compressed bytes.Buffer
	writer := lz4.NewWriter(&compressed)
	if _, err := writer.Write(chunkData); err != nil {
		return nil, fmt.Errorf("compression failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("compression failed: %v", err)
	}
	return compressed.Bytes(), nil
}

// DecompressChunk reverses CompressChunk.
func DecompressChunk(data []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(data))
	var decompressed bytes.Buffer

	if _, err := io.Copy(&decompressed, reader); err != nil {
		return nil, fmt.Errorf("decompression failed: %v", err)
	}

	return decompressed.Bytes(), nil
}

package ingest

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressPayload compresses a raw upstream payload for storage on the
// ingest batch record. Batches keep the original response so a bad
// normalization can be diagnosed and replayed without re-fetching.
func CompressPayload(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecompressPayload restores an archived payload.
func DecompressPayload(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing payload: %w", err)
	}
	return out, nil
}

package ingest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressPayloadRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte(`{"hours":[{"time":1788357600000,"windSpeed":20.0}]}`), 50)

	compressed, err := CompressPayload(raw)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(raw), "repetitive JSON must shrink")

	restored, err := DecompressPayload(compressed)
	require.NoError(t, err)
	assert.Equal(t, raw, restored)
}

func TestDecompressPayloadRejectsGarbage(t *testing.T) {
	_, err := DecompressPayload([]byte("not a zstd frame"))
	assert.Error(t, err)
}

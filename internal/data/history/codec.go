package history

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll.
var (
	blobEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	blobDecoder, _ = zstd.NewReader(nil)
)

func encodeFindings(findings []FindingRecord) ([]byte, error) {
	if len(findings) == 0 {
		return nil, nil
	}
	raw, err := msgpack.Marshal(findings)
	if err != nil {
		return nil, fmt.Errorf("encode findings: %w", err)
	}
	return blobEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func decodeFindings(blob []byte) ([]FindingRecord, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	raw, err := blobDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress findings: %w", err)
	}
	var findings []FindingRecord
	if err := msgpack.Unmarshal(raw, &findings); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	return findings, nil
}

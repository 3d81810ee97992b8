// Package compression implements the artifact codecs keyed by
// core.CompressionType.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/conduit-lang/assetimport/pkg/core"
)

// Codec compresses and decompresses artifact bytes.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// For returns the codec for t.
func For(t core.CompressionType) (Codec, error) {
	switch t {
	case core.CompressionNone:
		return noneCodec{}, nil
	case core.CompressionGzip:
		return gzipCodec{}, nil
	default:
		return nil, fmt.Errorf("no codec for %s", t)
	}
}

type noneCodec struct{}

func (noneCodec) Compress(data []byte) ([]byte, error) { return data, nil }

func (noneCodec) Decompress(data []byte) ([]byte, error) { return data, nil }

type gzipCodec struct{}

// Compress uses gzip.BestCompression; artifacts are compressed once at import
// time and read many times.
func (gzipCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

func (gzipCodec) Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}

	return decompressed, nil
}

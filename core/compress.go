//go:build !nocompress

package core

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// brotliQuality is fixed rather than configurable: the wire format only
// carries the algorithm code, not its parameters, so encoder and decoder
// must agree on quality out of band.
const brotliQuality = 5

// Compress applies the algorithm named by code to b. CompressionNone returns
// b unchanged.
func Compress(code CompressionCode, b []byte) ([]byte, error) {
	switch code {
	case CompressionNone:
		return b, nil
	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(b); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionBrotli:
		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, brotliQuality)
		if _, err := w.Write(b); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown compression code %d", ErrHeaderInvalid, code)
	}
}

// Decompress reverses Compress. A malformed or truncated stream yields
// ErrDecompressFailed.
func Decompress(code CompressionCode, b []byte) ([]byte, error) {
	switch code {
	case CompressionNone:
		return b, nil
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
		}
		return out, nil
	case CompressionBrotli:
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(b)))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression code %d", ErrHeaderInvalid, code)
	}
}

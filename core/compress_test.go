//go:build !nocompress

package core

import (
	"bytes"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility, " +
		"the quick brown fox jumps over the lazy dog")

	for _, code := range []CompressionCode{CompressionNone, CompressionGzip, CompressionBrotli} {
		compressed, err := Compress(code, data)
		if err != nil {
			t.Fatalf("compress code %d: %v", code, err)
		}
		decompressed, err := Decompress(code, compressed)
		if err != nil {
			t.Fatalf("decompress code %d: %v", code, err)
		}
		if !bytes.Equal(decompressed, data) {
			t.Fatalf("round trip mismatch for code %d", code)
		}
	}
}

func TestCompressRejectsUnknownCode(t *testing.T) {
	if _, err := Compress(CompressionCode(99), []byte("x")); err == nil {
		t.Fatal("expected error for unknown compression code")
	}
}

func TestDecompressGzipRejectsGarbage(t *testing.T) {
	if _, err := Decompress(CompressionGzip, []byte("not gzip data")); err == nil {
		t.Fatal("expected error decompressing garbage as gzip")
	}
}

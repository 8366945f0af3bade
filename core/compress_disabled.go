//go:build nocompress

package core

import "fmt"

// Compress is a no-op build of the compression stage: it validates the code
// but passes bytes through unchanged. Selected via the nocompress build tag
// for deployments that disable compression entirely rather than pay for the
// gzip/brotli import closure.
func Compress(code CompressionCode, b []byte) ([]byte, error) {
	if code > maxCompressionCode {
		return nil, fmt.Errorf("%w: unknown compression code %d", ErrHeaderInvalid, code)
	}
	return b, nil
}

func Decompress(code CompressionCode, b []byte) ([]byte, error) {
	if code > maxCompressionCode {
		return nil, fmt.Errorf("%w: unknown compression code %d", ErrHeaderInvalid, code)
	}
	return b, nil
}

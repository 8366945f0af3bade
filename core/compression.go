package core

// CompressionCode identifies the compression algorithm applied to a
// Message's payload, as carried in HeaderV1.Compression. The numeric set is
// closed; unrecognized codes cause header validation to fail.
type CompressionCode uint32

const (
	CompressionNone CompressionCode = iota
	CompressionGzip
	CompressionBrotli

	maxCompressionCode = CompressionBrotli
)

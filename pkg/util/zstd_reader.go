package util

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewZstdReadCloser creates a new io.ReadCloser that wraps an underlying
// reader and decompresses the data using Zstandard. The reader will close
// both the decoder and the underlying reader when it is closed.
//
// Reads fail with codes.ResourceExhausted once the decompressed data
// exceeds maximumSizeBytes, so that small compressed payloads cannot
// expand into arbitrarily large amounts of memory.
func NewZstdReadCloser(underlyingReader io.ReadCloser, maximumSizeBytes int64) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(underlyingReader, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return &zstdReadCloser{
		Decoder:          decoder,
		underlyingReader: underlyingReader,
		remainingBytes:   maximumSizeBytes,
		maximumSizeBytes: maximumSizeBytes,
	}, nil
}

type zstdReadCloser struct {
	*zstd.Decoder

	underlyingReader io.ReadCloser
	remainingBytes   int64
	maximumSizeBytes int64
}

func (r *zstdReadCloser) Read(p []byte) (int, error) {
	if int64(len(p)) > r.remainingBytes+1 {
		p = p[:r.remainingBytes+1]
	}
	n, err := r.Decoder.Read(p)
	r.remainingBytes -= int64(n)
	if r.remainingBytes < 0 {
		return 0, status.Errorf(codes.ResourceExhausted, "Decompressed data exceeds the maximum size of %d bytes", r.maximumSizeBytes)
	}
	return n, err
}

func (r *zstdReadCloser) Close() error {
	r.Decoder.Close()
	return r.underlyingReader.Close()
}

package digest

import (
	"errors"
	"fmt"
	"io"
)

// Chunker pulls bounded chunks from a reader into one reusable buffer.
type Chunker struct {
	reader io.Reader
	buffer []byte
}

// NewChunker creates a streaming chunker with a buffer of chunkSize bytes.
func NewChunker(r io.Reader, chunkSize int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}
	return &Chunker{
		reader: r,
		buffer: make([]byte, chunkSize),
	}, nil
}

// Next returns the next chunk of up to chunkSize bytes. Every chunk except
// the last is full, however the underlying reader splits its reads. The
// returned slice aliases the internal buffer and is only valid until the
// following call. At end of stream Next returns io.EOF.
func (c *Chunker) Next() ([]byte, error) {
	n, err := io.ReadFull(c.reader, c.buffer)
	switch {
	case err == nil:
		return c.buffer[:n], nil
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		// short final chunk
		return c.buffer[:n], nil
	default:
		return nil, err
	}
}

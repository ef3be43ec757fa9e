// Package stream feeds byte streams into a protocol parser.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/imcctl/internal/protocol/parser"
)

// DefaultChunkSize is the read size used when Pump is given a size <= 0.
const DefaultChunkSize = 4096

// Pump reads r in chunks of size bytes and feeds them to p until EOF or
// until ctx is done. after, when set, runs once per chunk.
func Pump(ctx context.Context, r io.Reader, p *parser.Parser, size int, after func()) error {
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := r.Read(buf)
		if n > 0 {
			p.Parse(buf[:n])
			if after != nil {
				after()
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream: read: %w", err)
		}
	}
}

package submission

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// WriterCollaborator encodes each payload as indented JSON to an io.Writer.
// Useful for dry runs and local tooling.
type WriterCollaborator struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterCollaborator wraps w.
func NewWriterCollaborator(w io.Writer) *WriterCollaborator {
	return &WriterCollaborator{w: w}
}

// Submit implements Collaborator.
func (c *WriterCollaborator) Submit(ctx context.Context, payload Payload) Result {
	if err := ctx.Err(); err != nil {
		return Failure(ErrorKindCanceled, err.Error())
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	enc := json.NewEncoder(c.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return Failure(ErrorKindEncoding, err.Error())
	}
	return Success(payload)
}

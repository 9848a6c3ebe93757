// Package testsupport holds fixtures shared by the form engine tests.
package testsupport

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// ValueComparer lets cmp.Diff compare model.Value by content.
var ValueComparer = cmp.Comparer(func(a, b model.Value) bool { return a.Equal(b) })

// ProductFields is the product form used across tests: a required name, a
// required positive price and a single image attachment.
func ProductFields() []schema.FieldSpec {
	return []schema.FieldSpec{
		{Name: "productName", Kind: model.KindString, Required: true, RequiredMessage: "Product name is required"},
		{Name: "price", Kind: model.KindNumber, Required: true, Rules: []validation.Rule{
			validation.Positive("Price must be positive"),
		}},
		{Name: "image", Kind: model.KindFileList},
	}
}

// ProductSchema builds the product form with an image/* attachment limited
// to one file. Extra options are applied after the defaults.
func ProductSchema(t testing.TB, options ...schema.Option) *schema.Schema {
	t.Helper()

	opts := append([]schema.Option{
		schema.WithID("product"),
		schema.WithAttachment(schema.Attachment{Field: "image", Accept: []string{"image/*"}, MaxFiles: 1}),
	}, options...)
	s, err := schema.New(ProductFields(), opts...)
	if err != nil {
		t.Fatalf("testsupport: product schema: %v", err)
	}
	return s
}

// Recorder is a collaborator that records every payload. Respond, when set,
// decides the result; otherwise every payload succeeds.
type Recorder struct {
	Respond func(ctx context.Context, p submission.Payload) submission.Result

	mu       sync.Mutex
	payloads []submission.Payload
}

// Submit implements submission.Collaborator.
func (r *Recorder) Submit(ctx context.Context, p submission.Payload) submission.Result {
	r.mu.Lock()
	r.payloads = append(r.payloads, p)
	respond := r.Respond
	r.mu.Unlock()
	if respond != nil {
		return respond(ctx, p)
	}
	return submission.Success(p)
}

// Payloads returns a copy of the recorded payloads.
func (r *Recorder) Payloads() []submission.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]submission.Payload(nil), r.payloads...)
}

// FailTimes returns a responder failing the first n calls with a server
// error carrying message, then succeeding.
func FailTimes(n int, message string) func(context.Context, submission.Payload) submission.Result {
	var mu sync.Mutex
	return func(_ context.Context, p submission.Payload) submission.Result {
		mu.Lock()
		defer mu.Unlock()
		if n > 0 {
			n--
			return submission.Failure(submission.ErrorKindServer, message)
		}
		return submission.Success(p)
	}
}

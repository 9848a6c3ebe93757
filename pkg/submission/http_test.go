package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formstate/pkg/model"
)

func TestHTTPCollaboratorJSON(t *testing.T) {
	var got map[string]any
	var idempotency string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		idempotency = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	h := NewHTTPCollaborator(srv.URL, WithHTTPClient(srv.Client()))
	payload := Payload{
		ID:     "sub-1",
		Values: map[string]model.Value{"productName": model.String("Widget"), "price": model.Number(10)},
	}
	res := h.Submit(context.Background(), payload)
	require.True(t, res.OK(), res.Message())
	require.Equal(t, "sub-1", res.Payload().ID)
	require.Equal(t, "sub-1", idempotency)

	require.Equal(t, map[string]any{"productName": "Widget", "price": float64(10)}, got["values"])
	require.Equal(t, []any{}, got["files"])
}

func TestHTTPCollaboratorMultipart(t *testing.T) {
	type part struct {
		name, filename, contentType, body string
	}
	var parts []part
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reader, err := r.MultipartReader()
		require.NoError(t, err)
		for {
			p, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			body, _ := io.ReadAll(p)
			parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(body)})
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	payload := Payload{
		ID:        "sub-2",
		FileField: "file",
		Values: map[string]model.Value{
			"title": model.String("Hello"),
			"tags":  model.StringSet("a", "b"),
		},
		Files: []*model.File{
			{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("hi")},
			{Name: "raw.bin", Handle: bytes.NewReader([]byte("xyz"))},
		},
	}
	res := NewHTTPCollaborator(srv.URL, WithHTTPClient(srv.Client())).Submit(context.Background(), payload)
	require.True(t, res.OK(), res.Message())

	require.Equal(t, []part{
		{name: "_submission", body: "sub-2"},
		{name: "tags", body: "a"},
		{name: "tags", body: "b"},
		{name: "title", body: "Hello"},
		{name: "file", filename: "notes.txt", contentType: "text/plain", body: "hi"},
		{name: "file", filename: "raw.bin", contentType: "application/octet-stream", body: "xyz"},
	}, parts)
}

func TestHTTPCollaboratorServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"sku already exists"}`))
	}))
	defer srv.Close()

	res := NewHTTPCollaborator(srv.URL, WithHTTPClient(srv.Client())).Submit(context.Background(), Payload{})
	require.False(t, res.OK())
	require.Equal(t, ErrorKindServer, res.Kind())
	require.Equal(t, "sku already exists", res.Message())
}

func TestHTTPCollaboratorTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	h := NewHTTPCollaborator(srv.URL, WithHTTPClient(srv.Client()), WithTimeout(20*time.Millisecond))
	res := h.Submit(context.Background(), Payload{})
	require.False(t, res.OK())
	require.Equal(t, ErrorKindNetwork, res.Kind())
	require.Equal(t, "timeout", res.Message())
}

func TestHTTPCollaboratorRequiresEndpoint(t *testing.T) {
	res := NewHTTPCollaborator(" ").Submit(context.Background(), Payload{})
	require.False(t, res.OK())
}

func TestWriterCollaborator(t *testing.T) {
	var buf bytes.Buffer
	res := NewWriterCollaborator(&buf).Submit(context.Background(), Payload{
		ID:     "sub-3",
		Values: map[string]model.Value{"title": model.String("Hi")},
	})
	require.True(t, res.OK())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "sub-3", decoded["id"])
	require.Equal(t, map[string]any{"title": "Hi"}, decoded["values"])
}

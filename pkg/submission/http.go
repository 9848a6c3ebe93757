package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-formstate/pkg/model"
)

const maxErrorBody = 4 << 10

// HTTPOption configures an HTTPCollaborator.
type HTTPOption func(*HTTPCollaborator)

// WithHTTPClient overrides the client used to send submissions.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTPCollaborator) {
		if client != nil {
			h.client = client
		}
	}
}

// WithMethod overrides the HTTP method (POST by default).
func WithMethod(method string) HTTPOption {
	return func(h *HTTPCollaborator) {
		if trimmed := strings.ToUpper(strings.TrimSpace(method)); trimmed != "" {
			h.method = trimmed
		}
	}
}

// WithTimeout bounds each submission. Zero disables the bound.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTPCollaborator) {
		h.timeout = timeout
	}
}

// WithHeader adds a request header to every submission.
func WithHeader(key, value string) HTTPOption {
	return func(h *HTTPCollaborator) {
		h.header.Add(key, value)
	}
}

// HTTPCollaborator sends payloads to an endpoint. Payloads without files are
// sent as JSON; payloads with files as multipart/form-data with one part per
// value and per file.
type HTTPCollaborator struct {
	endpoint string
	method   string
	client   *http.Client
	timeout  time.Duration
	header   http.Header
}

// NewHTTPCollaborator builds a collaborator posting to endpoint.
func NewHTTPCollaborator(endpoint string, options ...HTTPOption) *HTTPCollaborator {
	h := &HTTPCollaborator{
		endpoint: strings.TrimSpace(endpoint),
		method:   http.MethodPost,
		client:   http.DefaultClient,
		header:   make(http.Header),
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Submit implements Collaborator.
func (h *HTTPCollaborator) Submit(ctx context.Context, payload Payload) Result {
	if h.endpoint == "" {
		return Failure(ErrorKindUnknown, "endpoint is not configured")
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	body, contentType, err := encodePayload(payload)
	if err != nil {
		return Failure(ErrorKindEncoding, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, h.method, h.endpoint, body)
	if err != nil {
		return Failure(ErrorKindUnknown, fmt.Sprintf("request: %v", err))
	}
	for key, values := range h.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if payload.ID != "" {
		req.Header.Set("Idempotency-Key", payload.ID)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return Failure(ErrorKindNetwork, "timeout")
		case errors.Is(err, context.Canceled):
			return Failure(ErrorKindCanceled, "canceled")
		default:
			return Failure(ErrorKindNetwork, err.Error())
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Failure(ErrorKindServer, serverMessage(resp))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return Success(payload)
}

func serverMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var decoded struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &decoded) == nil {
		if msg := strings.TrimSpace(decoded.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(decoded.Error); msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return fmt.Sprintf("unexpected status %d", resp.StatusCode)
}

func encodePayload(payload Payload) (io.Reader, string, error) {
	if len(payload.Files) == 0 {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("encode json: %w", err)
		}
		return bytes.NewReader(raw), "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if payload.ID != "" {
		if err := w.WriteField("_submission", payload.ID); err != nil {
			return nil, "", fmt.Errorf("encode multipart: %w", err)
		}
	}
	for _, name := range sortedNames(payload.Values) {
		if err := writeValue(w, name, payload.Values[name]); err != nil {
			return nil, "", fmt.Errorf("encode multipart field %s: %w", name, err)
		}
	}
	field := payload.FileField
	if field == "" {
		field = "file"
	}
	for _, file := range payload.Files {
		if err := writeFile(w, field, file); err != nil {
			return nil, "", fmt.Errorf("encode multipart file %s: %w", file.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeValue(w *multipart.Writer, name string, value model.Value) error {
	switch value.Kind() {
	case model.KindNull:
		return w.WriteField(name, "")
	case model.KindStringSet:
		items, _ := value.AsStringSet()
		for _, item := range items {
			if err := w.WriteField(name, item); err != nil {
				return err
			}
		}
		return nil
	case model.KindFileList:
		return nil
	default:
		return w.WriteField(name, value.String())
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(w *multipart.Writer, field string, file *model.File) error {
	if file == nil {
		return nil
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(file.Name)))
	contentType := file.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	switch {
	case file.Data != nil:
		_, err = part.Write(file.Data)
	case file.Handle != nil:
		if r, ok := file.Handle.(io.Reader); ok {
			_, err = io.Copy(part, r)
		}
	}
	return err
}

func sortedNames(values map[string]model.Value) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

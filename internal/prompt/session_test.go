package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/submission"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

type stubDriver struct {
	inputs     []string
	confirm    []bool
	messages   []string
	prompts    []string
	inputPos   int
	confirmPos int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.messages = append(s.messages, msg)
	return nil
}

func productForm(t *testing.T, collab submission.Collaborator) *formstate.Form {
	t.Helper()
	form, err := formstate.New(testsupport.ProductSchema(t), collab)
	require.NoError(t, err)
	t.Cleanup(form.Close)
	return form
}

func TestSessionRun(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "notes.txt", []byte("plain"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "photo.png", []byte("\x89PNG"), 0o644))

	collab := &testsupport.Recorder{Respond: testsupport.FailTimes(1, "server down")}
	driver := &stubDriver{
		inputs:  []string{"Widget", "abc", "-2", "missing.png", "notes.txt", "photo.png", "12"},
		confirm: []bool{true},
	}
	session := NewSession(productForm(t, collab), driver, WithFileSystem(fsys))

	outcome, err := session.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, submission.StatusSubmitted, outcome.Status)

	require.Equal(t, []string{
		"Product Name *", "Price *", "Price *", "Image", "Image", "Image", "Price *",
	}, driver.prompts)

	payloads := collab.Payloads()
	require.Len(t, payloads, 2)
	final := payloads[1]
	name, _ := final.Values["productName"].AsString()
	price, _ := final.Values["price"].AsNumber()
	require.Equal(t, "Widget", name)
	require.Equal(t, 12.0, price)
	require.Len(t, final.Files, 1)
	require.Equal(t, "photo.png", final.Files[0].Name)
	require.Equal(t, "image/png", final.Files[0].MIMEType)
	require.EqualValues(t, 4, final.Files[0].Size)

	require.Contains(t, driver.messages, "  Price must be positive")
	require.Contains(t, driver.messages, "  Price: Price must be positive")
	require.Contains(t, driver.messages, "Submission failed: server down")
}

func TestSessionGivesUpAfterFailure(t *testing.T) {
	collab := &testsupport.Recorder{Respond: testsupport.FailTimes(1, "server down")}
	driver := &stubDriver{
		inputs:  []string{"Widget", "5", ""},
		confirm: []bool{false},
	}
	session := NewSession(productForm(t, collab), driver, WithFileSystem(afero.NewMemMapFs()))

	outcome, err := session.Run(context.Background())
	require.ErrorIs(t, err, ErrGaveUp)
	require.Equal(t, submission.StatusFailed, outcome.Status)
	require.Len(t, collab.Payloads(), 1)
}

func TestLoadFileSniffsContent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "scan", []byte("%PDF-1.7\n"), 0o644))

	file, err := LoadFile(fsys, "scan")
	require.NoError(t, err)
	require.Equal(t, "scan", file.Name)
	require.Equal(t, "application/pdf", file.MIMEType)

	_, err = LoadFile(fsys, "nope")
	require.Error(t, err)
}

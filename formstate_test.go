package formstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/goliatone/go-formstate/pkg/attachment"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFormSubmitsProduct(t *testing.T) {
	collab := &testsupport.Recorder{}
	form, err := New(testsupport.ProductSchema(t), collab, WithIDGenerator(func() string { return "sub-1" }))
	require.NoError(t, err)
	defer form.Close()

	outcome := form.RequestSubmit(context.Background())
	require.Equal(t, submission.StatusInvalid, outcome.Status)
	require.Equal(t, map[string]string{
		"productName": "Product name is required",
		"price":       "required",
	}, outcome.Errors)
	require.Empty(t, collab.Payloads())

	snap := form.Snapshot()
	require.Equal(t, 1, snap.SubmitCount)
	msg, ok := snap.Error("productName")
	require.True(t, ok)
	require.Equal(t, "Product name is required", msg)

	require.NoError(t, form.SetValue("productName", model.String("Widget")))
	require.NoError(t, form.SetValue("price", model.Number(-1)))
	msg, _ = form.Snapshot().Error("price")
	require.Equal(t, "Price must be positive", msg)
	require.NoError(t, form.SetValue("price", model.Number(9.5)))

	image := &model.File{Name: "widget.png", MIMEType: "image/png", Data: []byte{0x89}}
	require.NoError(t, form.Attachments().Select(image))

	outcome = form.RequestSubmit(context.Background())
	require.Equal(t, submission.StatusSubmitted, outcome.Status)
	payloads := collab.Payloads()
	require.Len(t, payloads, 1)
	payload := payloads[0]
	require.Equal(t, "sub-1", payload.ID)
	require.Equal(t, "product", payload.Form)
	require.Equal(t, "image", payload.FileField)
	require.Equal(t, []*model.File{image}, payload.Files)
	require.NotContains(t, payload.Values, "image")

	snap = form.Snapshot()
	require.False(t, snap.IsSubmitting)
	require.False(t, snap.HasErrors())
	name, _ := snap.Values["productName"].AsString()
	require.Equal(t, "", name)

	st, err := form.AttachmentState()
	require.NoError(t, err)
	require.Equal(t, attachment.PhaseIdle, st.Phase)
	require.Empty(t, st.Files)
	require.Equal(t, submission.PhaseIdle, form.SubmissionPhase())
}

func TestFormDragAndDrop(t *testing.T) {
	var phases []attachment.Phase
	form, err := New(testsupport.ProductSchema(t), &testsupport.Recorder{},
		WithAttachmentHook(func(_, to attachment.Phase, _ attachment.Event) {
			phases = append(phases, to)
		}))
	require.NoError(t, err)
	defer form.Close()

	ctrl := form.Attachments()
	require.NoError(t, ctrl.DragEnter())
	require.NoError(t, ctrl.Drop(&model.File{Name: "notes.pdf", MIMEType: "application/pdf"}))

	st, _ := form.AttachmentState()
	require.Equal(t, attachment.PhaseRejected, st.Phase)
	require.NotEmpty(t, st.RejectionReason)

	photo := &model.File{Name: "photo.jpg", MIMEType: "image/jpeg"}
	require.NoError(t, ctrl.DragEnter())
	require.NoError(t, ctrl.Drop(photo))
	files, _ := form.Snapshot().Values["image"].AsFiles()
	require.Equal(t, []*model.File{photo}, files)

	form.Reset()
	files, _ = form.Snapshot().Values["image"].AsFiles()
	require.Empty(t, files)
	st, _ = form.AttachmentState()
	require.Equal(t, attachment.PhaseIdle, st.Phase)

	require.Equal(t, []attachment.Phase{
		attachment.PhaseDragging,
		attachment.PhaseRejected,
		attachment.PhaseDragging,
		attachment.PhaseAccepted,
		attachment.PhaseIdle,
	}, phases)
}

func TestFormRejectsDirectAttachmentWrites(t *testing.T) {
	collab := &testsupport.Recorder{}
	form, err := New(testsupport.ProductSchema(t), collab)
	require.NoError(t, err)
	defer form.Close()

	image := &model.File{Name: "widget.png", MIMEType: "image/png", Data: []byte{0x89}}
	require.ErrorIs(t, form.SetValue("image", model.Files(image)), ErrAttachmentField)
	files, _ := form.Snapshot().Values["image"].AsFiles()
	require.Empty(t, files)

	require.NoError(t, form.SetValue("productName", model.String("Widget")))
	require.NoError(t, form.SetValue("price", model.Number(3)))
	require.NoError(t, form.Attachments().Select(image))

	outcome := form.RequestSubmit(context.Background())
	require.Equal(t, submission.StatusSubmitted, outcome.Status)
	payloads := collab.Payloads()
	require.Len(t, payloads, 1)
	require.Equal(t, []*model.File{image}, payloads[0].Files)
}

func TestFormWithoutAttachment(t *testing.T) {
	s := schema.MustNew([]schema.FieldSpec{{Name: "title", Required: true}})
	form, err := New(s, submission.CollaboratorFunc(func(_ context.Context, p submission.Payload) submission.Result {
		return submission.Failure(submission.ErrorKindServer, "duplicate title")
	}))
	require.NoError(t, err)
	defer form.Close()

	require.Nil(t, form.Attachments())
	_, err = form.AttachmentState()
	require.ErrorIs(t, err, ErrNoAttachment)

	require.NoError(t, form.SetValue("title", model.String("Hello")))
	outcome := form.RequestSubmit(context.Background())
	require.Equal(t, submission.StatusFailed, outcome.Status)
	require.EqualError(t, outcome.Err, "duplicate title")

	title, _ := form.Snapshot().Values["title"].AsString()
	require.Equal(t, "Hello", title)
}

func TestNewRequiresSchemaAndCollaborator(t *testing.T) {
	_, err := New(nil, &testsupport.Recorder{})
	require.Error(t, err)
	_, err = New(testsupport.ProductSchema(t), nil)
	require.Error(t, err)
}

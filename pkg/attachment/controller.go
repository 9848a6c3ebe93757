// Package attachment implements the drag/drop/select state machine that
// feeds accepted files into a form's designated file-list field.
package attachment

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// Phase enumerates controller states.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseDragging Phase = "dragging"
	PhaseAccepted Phase = "accepted"
	PhaseRejected Phase = "rejected"
)

// Event enumerates the inputs the controller reacts to.
type Event string

const (
	EventDragEnter Event = "dragEnter"
	EventDragLeave Event = "dragLeave"
	EventDrop      Event = "drop"
	EventSelect    Event = "select"
	EventClear     Event = "clear"
)

// transitions lists the events each phase accepts. Anything else is an
// invalid transition and leaves the state untouched.
var transitions = map[Phase]map[Event]struct{}{
	PhaseIdle: {
		EventDragEnter: {},
		EventSelect:    {},
		EventClear:     {},
	},
	PhaseDragging: {
		EventDragLeave: {},
		EventDrop:      {},
	},
	PhaseAccepted: {
		EventDragEnter: {},
		EventDrop:      {},
		EventSelect:    {},
		EventClear:     {},
	},
	PhaseRejected: {
		EventDragEnter: {},
		EventDrop:      {},
		EventSelect:    {},
		EventClear:     {},
	},
}

// ErrInvalidTransition is returned when an event is not allowed in the
// current phase.
var ErrInvalidTransition = errors.New("attachment: invalid transition")

// RejectionError describes a drop or selection where no file passed the
// accept-filter. It is recorded in State and never aborts the form.
type RejectionError struct {
	Files  []string
	Reason string
}

func (e *RejectionError) Error() string {
	if e == nil {
		return ""
	}
	return "attachment: " + e.Reason
}

// FieldSetter receives the accepted file list. *state.Store satisfies it.
type FieldSetter interface {
	SetValue(name string, value model.Value) error
}

// TransitionHook observes every phase change.
type TransitionHook func(from, to Phase, event Event)

// State is a read-only copy of the controller state.
type State struct {
	Phase           Phase
	Files           []*model.File
	RejectionReason string
	Rejection       *RejectionError
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTransitionHook registers an observer for phase changes. The hook runs
// while the controller is locked and must not call back into it.
func WithTransitionHook(hook TransitionHook) Option {
	return func(c *Controller) {
		c.hook = hook
	}
}

// Controller owns the attachment state for one form instance.
type Controller struct {
	mu        sync.Mutex
	cfg       schema.Attachment
	filter    Filter
	setter    FieldSetter
	phase     Phase
	settled   Phase
	files     []*model.File
	rejection *RejectionError
	logger    *zap.Logger
	hook      TransitionHook
}

// NewController builds a controller for cfg. Accepted files are written to
// cfg.Field through setter.
func NewController(cfg schema.Attachment, setter FieldSetter, options ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		filter:  NewFilter(cfg.Accept),
		setter:  setter,
		phase:   PhaseIdle,
		settled: PhaseIdle,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Field returns the name of the mirrored form field.
func (c *Controller) Field() string { return c.cfg.Field }

// DragEnter starts a drag over the drop zone.
func (c *Controller) DragEnter() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.allow(EventDragEnter); err != nil {
		return err
	}
	c.settled = c.phase
	c.moveTo(PhaseDragging, EventDragEnter)
	return nil
}

// DragLeave cancels a drag and returns to the phase held before it started.
func (c *Controller) DragLeave() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.allow(EventDragLeave); err != nil {
		return err
	}
	c.moveTo(c.settled, EventDragLeave)
	return nil
}

// Drop delivers dropped files. A drop with no files behaves like DragLeave.
func (c *Controller) Drop(files ...*model.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.allow(EventDrop); err != nil {
		return err
	}
	if len(files) == 0 {
		c.moveTo(c.settled, EventDrop)
		return nil
	}
	return c.receive(files, EventDrop)
}

// Select delivers files chosen through a file picker. It is filtered exactly
// like a drop. An empty selection (cancelled picker) changes nothing.
func (c *Controller) Select(files ...*model.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.allow(EventSelect); err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	return c.receive(files, EventSelect)
}

// Clear detaches every file and writes the empty list to the form field.
func (c *Controller) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.allow(EventClear); err != nil {
		return err
	}
	hadFiles := len(c.files) > 0
	c.files = nil
	c.rejection = nil
	c.settled = PhaseIdle
	c.moveTo(PhaseIdle, EventClear)
	if hadFiles && c.setter != nil {
		return c.setter.SetValue(c.cfg.Field, model.Files())
	}
	return nil
}

// Reset returns to idle without writing to the form field. Used when the
// owning form resets its own values.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.files = nil
	c.rejection = nil
	c.settled = PhaseIdle
	if c.phase != PhaseIdle {
		c.moveTo(PhaseIdle, EventClear)
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Phase: c.phase,
		Files: append([]*model.File(nil), c.files...),
	}
	if c.rejection != nil {
		clone := *c.rejection
		clone.Files = append([]string(nil), c.rejection.Files...)
		st.Rejection = &clone
		st.RejectionReason = clone.Reason
	}
	return st
}

// Files returns the accepted files.
func (c *Controller) Files() []*model.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*model.File(nil), c.files...)
}

func (c *Controller) allow(event Event) error {
	if _, ok := transitions[c.phase][event]; ok {
		return nil
	}
	c.logger.Debug("attachment event ignored",
		zap.String("field", c.cfg.Field),
		zap.String("phase", string(c.phase)),
		zap.String("event", string(event)))
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, event, c.phase)
}

func (c *Controller) receive(files []*model.File, event Event) error {
	var accepted []*model.File
	var refused []string
	for _, file := range files {
		if c.filter.Accepts(file) {
			accepted = append(accepted, file)
			continue
		}
		if file != nil {
			refused = append(refused, file.Name)
		}
	}

	if len(accepted) == 0 {
		c.reject(refused, "file type not accepted: "+strings.Join(refused, ", "), event)
		return nil
	}

	var next []*model.File
	if c.cfg.Multiple {
		if c.cfg.MaxFiles > 0 && len(c.files) >= c.cfg.MaxFiles {
			names := make([]string, 0, len(accepted))
			for _, file := range accepted {
				names = append(names, file.Name)
			}
			c.reject(names, fmt.Sprintf("maximum of %d files reached", c.cfg.MaxFiles), event)
			return nil
		}
		next = append(append(next, c.files...), accepted...)
		if c.cfg.MaxFiles > 0 && len(next) > c.cfg.MaxFiles {
			next = next[:c.cfg.MaxFiles]
		}
	} else {
		next = []*model.File{accepted[0]}
	}

	if len(refused) > 0 {
		c.logger.Debug("attachment files discarded",
			zap.String("field", c.cfg.Field),
			zap.Strings("files", refused))
	}

	c.files = next
	c.rejection = nil
	c.settled = PhaseAccepted
	c.moveTo(PhaseAccepted, event)
	if c.setter == nil {
		return nil
	}
	return c.setter.SetValue(c.cfg.Field, model.Files(next...))
}

func (c *Controller) reject(names []string, reason string, event Event) {
	c.rejection = &RejectionError{Files: names, Reason: reason}
	c.settled = PhaseRejected
	c.logger.Info("attachment rejected",
		zap.String("field", c.cfg.Field),
		zap.Strings("files", names),
		zap.String("reason", reason))
	c.moveTo(PhaseRejected, event)
}

func (c *Controller) moveTo(next Phase, event Event) {
	prev := c.phase
	c.phase = next
	if prev == next {
		return
	}
	c.logger.Debug("attachment transition",
		zap.String("field", c.cfg.Field),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
		zap.String("event", string(event)))
	if c.hook != nil {
		c.hook(prev, next, event)
	}
}

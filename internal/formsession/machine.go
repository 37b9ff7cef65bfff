// Package formsession drives one intake conversation on the client side:
// pet data first, then question rounds until the backend reports completion.
package formsession

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fofrafo/dynamic-form/internal/models"
)

type Step string

const (
	StepInitial   Step = "initial"
	StepQuestions Step = "questions"
	StepCompleted Step = "completed"
	StepError     Step = "error"
)

// AllowedTransitions is the session flow as code. Reset to initial is
// allowed from every step.
var AllowedTransitions = map[Step][]Step{
	StepInitial:   {StepInitial, StepQuestions, StepCompleted, StepError},
	StepQuestions: {StepInitial, StepQuestions, StepCompleted, StepError},
	StepCompleted: {StepInitial},
	StepError:     {StepInitial, StepQuestions, StepCompleted, StepError},
}

func CanTransition(from, to Step) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

var (
	ErrBusy              = errors.New("a request is already in flight")
	ErrInvalidTransition = errors.New("action not allowed in current step")
	ErrNothingToRetry    = errors.New("no failed request to retry")
	ErrDiscarded         = errors.New("session was reset while the request was in flight")
)

// ValidationError lists intake fields that are blank after trimming.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "missing required fields: " + strings.Join(names, ", ")
}

// Generator sends one question round to the backend.
type Generator interface {
	GenerateQuestion(ctx context.Context, req models.GenerateQuestionRequest) (*models.Response, error)
}

type State struct {
	Step      Step
	SessionID string
	History   []models.QAPair
	Current   *models.Response
	Loading   bool
	Err       string
	Intake    *models.IntakeData
}

type Machine struct {
	gen Generator

	mu      sync.Mutex
	state   State
	pending *models.GenerateQuestionRequest
	// epoch changes on Reset so responses for a discarded session are dropped
	epoch uint64
}

func New(gen Generator) *Machine {
	return &Machine{gen: gen, state: State{Step: StepInitial}}
}

// State returns a snapshot that callers may keep.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.state
	s.History = append([]models.QAPair(nil), m.state.History...)
	if m.state.Intake != nil {
		intake := *m.state.Intake
		s.Intake = &intake
	}
	return s
}

// CurrentQuestion returns the question awaiting an answer, or nil.
func (m *Machine) CurrentQuestion() *models.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Step != StepQuestions || m.state.Current == nil {
		return nil
	}
	return m.state.Current.Question
}

// Completion returns the summary and goals once the session is completed.
func (m *Machine) Completion() *models.Completion {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Step != StepCompleted || m.state.Current == nil {
		return nil
	}
	return m.state.Current.Completion
}

// Start submits the pet data and fetches the first question.
func (m *Machine) Start(ctx context.Context, intake models.IntakeData) error {
	m.mu.Lock()
	if m.state.Loading {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.state.Step != StepInitial {
		m.mu.Unlock()
		return fmt.Errorf("start from %s: %w", m.state.Step, ErrInvalidTransition)
	}
	if fields := intake.MissingFields(); len(fields) > 0 {
		m.mu.Unlock()
		return &ValidationError{Fields: fields}
	}

	trimmed := intake.Trimmed()
	m.state.Intake = &trimmed
	req := models.GenerateQuestionRequest{IntakeData: trimmed}
	return m.send(ctx, req)
}

// Answer records the answer to the current question and requests the next round.
func (m *Machine) Answer(ctx context.Context, answer string) error {
	m.mu.Lock()
	if m.state.Loading {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.state.Step != StepQuestions || m.state.Current == nil || m.state.Current.Question == nil {
		m.mu.Unlock()
		return fmt.Errorf("answer in %s: %w", m.state.Step, ErrInvalidTransition)
	}
	if strings.TrimSpace(answer) == "" {
		m.mu.Unlock()
		return ErrEmptyAnswer
	}

	m.state.History = append(m.state.History, models.QAPair{
		Question: m.state.Current.Question.Question,
		Answer:   answer,
	})
	req := models.GenerateQuestionRequest{
		SessionID:  m.state.SessionID,
		IntakeData: *m.state.Intake,
		History:    append([]models.QAPair(nil), m.state.History...),
	}
	return m.send(ctx, req)
}

// Retry resends the request that moved the session into the error step.
func (m *Machine) Retry(ctx context.Context) error {
	m.mu.Lock()
	if m.state.Loading {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.state.Step != StepError {
		m.mu.Unlock()
		return fmt.Errorf("retry in %s: %w", m.state.Step, ErrInvalidTransition)
	}
	if m.pending == nil {
		m.mu.Unlock()
		return ErrNothingToRetry
	}
	return m.send(ctx, *m.pending)
}

// Reset discards everything; the next Start opens a new session.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.pending = nil
	m.state = State{Step: StepInitial}
}

// send must be called with m.mu held; it releases the lock for the network call.
func (m *Machine) send(ctx context.Context, req models.GenerateQuestionRequest) error {
	m.state.Loading = true
	m.state.Err = ""
	epoch := m.epoch
	m.mu.Unlock()

	resp, err := m.gen.GenerateQuestion(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return ErrDiscarded
	}
	m.state.Loading = false

	if err == nil {
		err = m.accept(resp)
	}
	if err != nil {
		m.fail(req, err)
		return err
	}

	m.pending = nil
	if resp.IsCompleted() {
		m.moveTo(StepCompleted)
	} else {
		m.moveTo(StepQuestions)
	}
	m.state.Current = resp
	return nil
}

func (m *Machine) accept(resp *models.Response) error {
	if resp == nil {
		return &models.ShapeError{Kind: models.KindQuestion, Missing: []string{"question", "responseType", "emoji"}}
	}
	if err := resp.Validate(); err != nil {
		return err
	}
	if resp.Question != nil {
		if err := resp.Question.CheckOptions(); err != nil {
			return &models.ShapeError{Kind: models.KindQuestion, Reason: err.Error()}
		}
	}
	switch {
	case m.state.SessionID == "":
		if resp.SessionID == "" {
			return &models.ShapeError{Kind: resp.Kind, Missing: []string{"session_id"}}
		}
		m.state.SessionID = resp.SessionID
	case resp.SessionID != "" && resp.SessionID != m.state.SessionID:
		return fmt.Errorf("session id changed from %s to %s", m.state.SessionID, resp.SessionID)
	}
	return nil
}

func (m *Machine) fail(req models.GenerateQuestionRequest, err error) {
	m.pending = &req
	m.state.Err = err.Error()
	m.moveTo(StepError)
}

func (m *Machine) moveTo(step Step) {
	if !CanTransition(m.state.Step, step) {
		panic(fmt.Sprintf("formsession: illegal transition %s -> %s", m.state.Step, step))
	}
	m.state.Step = step
}

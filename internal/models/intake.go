package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ResponseType string

const (
	ResponseSingleChoice      ResponseType = "singleChoice"
	ResponseText              ResponseType = "text"
	ResponseMultipleChoice    ResponseType = "multipleChoice"
	ResponseCategorizedChoice ResponseType = "categorizedChoice"
)

func (t ResponseType) Valid() bool {
	switch t {
	case ResponseSingleChoice, ResponseText, ResponseMultipleChoice, ResponseCategorizedChoice:
		return true
	}
	return false
}

type Duration string

const (
	Duration15 Duration = "15min"
	Duration30 Duration = "30min"
)

func (d Duration) Valid() bool {
	return d == Duration15 || d == Duration30
}

const StatusCompleted = "completed"

// IntakeData holds the four pet attributes collected before the first question.
type IntakeData struct {
	Species string `json:"species"`
	Age     string `json:"age"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}

func (d IntakeData) Trimmed() IntakeData {
	return IntakeData{
		Species: strings.TrimSpace(d.Species),
		Age:     strings.TrimSpace(d.Age),
		Name:    strings.TrimSpace(d.Name),
		Reason:  strings.TrimSpace(d.Reason),
	}
}

// MissingFields reports every blank field keyed by its wire name.
func (d IntakeData) MissingFields() map[string]string {
	fields := map[string]string{}
	t := d.Trimmed()
	if t.Species == "" {
		fields["species"] = "Species is required"
	}
	if t.Age == "" {
		fields["age"] = "Age is required"
	}
	if t.Name == "" {
		fields["name"] = "Name is required"
	}
	if t.Reason == "" {
		fields["reason"] = "Reason is required"
	}
	return fields
}

type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type GenerateQuestionRequest struct {
	SessionID string `json:"session_id,omitempty"`
	IntakeData
	History []QAPair `json:"history,omitempty"`
}

type Category struct {
	Title   string   `json:"title"`
	Emoji   string   `json:"emoji"`
	Options []string `json:"options"`
}

type Question struct {
	Question      string       `json:"question"`
	ResponseType  ResponseType `json:"responseType"`
	Options       []string     `json:"options,omitempty"`
	Categories    []Category   `json:"categories,omitempty"`
	Emoji         string       `json:"emoji"`
	Reasoning     string       `json:"reasoning"`
	GoalsChecked  []string     `json:"goalsChecked"`
	MinSelections *int         `json:"minSelections,omitempty"`
	MaxSelections *int         `json:"maxSelections,omitempty"`
}

// CheckOptions enforces that exactly the option set matching the response
// type is populated.
func (q *Question) CheckOptions() error {
	switch q.ResponseType {
	case ResponseSingleChoice, ResponseMultipleChoice:
		if len(q.Options) == 0 || len(q.Categories) > 0 {
			return fmt.Errorf("%s question needs options and no categories", q.ResponseType)
		}
	case ResponseCategorizedChoice:
		if len(q.Categories) == 0 || len(q.Options) > 0 {
			return fmt.Errorf("categorizedChoice question needs categories and no options")
		}
	case ResponseText:
		if len(q.Options) > 0 || len(q.Categories) > 0 {
			return fmt.Errorf("text question must not carry options")
		}
	default:
		return fmt.Errorf("unknown responseType %q", q.ResponseType)
	}
	if q.MinSelections != nil && q.MaxSelections != nil && *q.MinSelections > *q.MaxSelections {
		return fmt.Errorf("minSelections %d exceeds maxSelections %d", *q.MinSelections, *q.MaxSelections)
	}
	return nil
}

type Goals struct {
	Duration           Duration `json:"duration"`
	CallbackNeeded     bool     `json:"callbackNeeded"`
	ConfirmationNeeded bool     `json:"confirmationNeeded"`
}

type Completion struct {
	Summary string `json:"summary"`
	Goals   Goals  `json:"goals"`
}

type ResponseKind string

const (
	KindQuestion   ResponseKind = "question"
	KindCompletion ResponseKind = "completion"
)

// Response is the question|completion union returned by generate-question.
// Kind selects which of Question or Completion is set.
type Response struct {
	Kind       ResponseKind
	SessionID  string
	Question   *Question
	Completion *Completion
}

func NewQuestionResponse(sessionID string, q Question) *Response {
	return &Response{Kind: KindQuestion, SessionID: sessionID, Question: &q}
}

func NewCompletionResponse(sessionID string, c Completion) *Response {
	return &Response{Kind: KindCompletion, SessionID: sessionID, Completion: &c}
}

func (r *Response) IsCompleted() bool {
	return r.Kind == KindCompletion
}

type questionWire struct {
	SessionID string `json:"session_id"`
	Question
}

type completionWire struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Summary   string `json:"summary"`
	Goals     *Goals `json:"goals"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindQuestion:
		if r.Question == nil {
			return nil, fmt.Errorf("question response without payload")
		}
		q := *r.Question
		if q.GoalsChecked == nil {
			q.GoalsChecked = []string{}
		}
		return json.Marshal(questionWire{SessionID: r.SessionID, Question: q})
	case KindCompletion:
		if r.Completion == nil {
			return nil, fmt.Errorf("completion response without payload")
		}
		goals := r.Completion.Goals
		return json.Marshal(completionWire{
			SessionID: r.SessionID,
			Status:    StatusCompleted,
			Summary:   r.Completion.Summary,
			Goals:     &goals,
		})
	}
	return nil, fmt.Errorf("unknown response kind %q", r.Kind)
}

// UnmarshalJSON discriminates on the status field: "completed" selects the
// completion variant, anything else the question variant.
func (r *Response) UnmarshalJSON(data []byte) error {
	var probe struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if probe.Status == StatusCompleted {
		var w completionWire
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		*r = Response{Kind: KindCompletion, SessionID: w.SessionID, Completion: &Completion{Summary: w.Summary}}
		if w.Goals != nil {
			r.Completion.Goals = *w.Goals
		}
		return nil
	}

	var w questionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Response{Kind: KindQuestion, SessionID: w.SessionID, Question: &w.Question}
	return nil
}

// ShapeError reports a response that decoded but lacks fields its variant requires.
type ShapeError struct {
	Kind    ResponseKind
	Missing []string
	// Reason replaces the missing-field list when the fields are present but inconsistent.
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s response structure: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid %s response structure: missing %s", e.Kind, strings.Join(e.Missing, ", "))
}

// Validate checks the fields the state machine reads before it trusts a response.
func (r *Response) Validate() error {
	var missing []string
	switch r.Kind {
	case KindCompletion:
		if r.Completion == nil {
			return &ShapeError{Kind: KindCompletion, Missing: []string{"summary", "goals"}}
		}
		if strings.TrimSpace(r.Completion.Summary) == "" {
			missing = append(missing, "summary")
		}
		if !r.Completion.Goals.Duration.Valid() {
			missing = append(missing, "goals")
		}
	case KindQuestion:
		if r.Question == nil {
			return &ShapeError{Kind: KindQuestion, Missing: []string{"question", "responseType", "emoji"}}
		}
		if strings.TrimSpace(r.Question.Question) == "" {
			missing = append(missing, "question")
		}
		if !r.Question.ResponseType.Valid() {
			missing = append(missing, "responseType")
		}
		if r.Question.Emoji == "" {
			missing = append(missing, "emoji")
		}
	default:
		return &ShapeError{Kind: r.Kind, Missing: []string{"status"}}
	}
	if len(missing) > 0 {
		return &ShapeError{Kind: r.Kind, Missing: missing}
	}
	return nil
}

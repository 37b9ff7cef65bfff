// Package demo provides an offline stand-in for the intake backend. It
// answers like the real service from canned scenarios, so the rest of the
// system can run without a database or a language model.
package demo

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/fofrafo/dynamic-form/internal/client"
	"github.com/fofrafo/dynamic-form/internal/models"
)

//go:embed scenarios.yaml
var scenariosYAML []byte

// rounds before the completion is returned
const questionRounds = 2

type categoryDoc struct {
	Title   string   `yaml:"title"`
	Emoji   string   `yaml:"emoji"`
	Options []string `yaml:"options"`
}

type questionDoc struct {
	Question     string        `yaml:"question"`
	ResponseType string        `yaml:"response_type"`
	Emoji        string        `yaml:"emoji"`
	Reasoning    string        `yaml:"reasoning"`
	GoalsChecked []string      `yaml:"goals_checked"`
	Options      []string      `yaml:"options"`
	Categories   []categoryDoc `yaml:"categories"`
}

type completionDoc struct {
	Summary            string `yaml:"summary"`
	Duration           string `yaml:"duration"`
	CallbackNeeded     bool   `yaml:"callback_needed"`
	ConfirmationNeeded bool   `yaml:"confirmation_needed"`
}

type scenarioDoc struct {
	Name       string        `yaml:"name"`
	Keywords   []string      `yaml:"keywords"`
	Question   questionDoc   `yaml:"question"`
	Completion completionDoc `yaml:"completion"`
}

type document struct {
	FollowUp  questionDoc   `yaml:"follow_up"`
	Scenarios []scenarioDoc `yaml:"scenarios"`
}

type Scenario struct {
	Name       string
	Keywords   []string
	First      models.Question
	Completion models.Completion
}

// Client implements the same calls as client.Client from scenario data.
type Client struct {
	scenarios []Scenario
	followUp  models.Question
	newID     func() string
}

func New() (*Client, error) {
	return Parse(scenariosYAML)
}

// Parse builds a demo client from a scenarios document.
func Parse(data []byte) (*Client, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse demo scenarios: %w", err)
	}
	if len(doc.Scenarios) == 0 {
		return nil, fmt.Errorf("demo scenarios: none defined")
	}

	c := &Client{newID: uuid.NewString}
	var err error
	if c.followUp, err = doc.FollowUp.toQuestion(); err != nil {
		return nil, fmt.Errorf("demo follow-up: %w", err)
	}
	for _, s := range doc.Scenarios {
		first, err := s.Question.toQuestion()
		if err != nil {
			return nil, fmt.Errorf("demo scenario %s: %w", s.Name, err)
		}
		duration := models.Duration(s.Completion.Duration)
		if !duration.Valid() {
			return nil, fmt.Errorf("demo scenario %s: invalid duration %q", s.Name, s.Completion.Duration)
		}
		c.scenarios = append(c.scenarios, Scenario{
			Name:     s.Name,
			Keywords: s.Keywords,
			First:    first,
			Completion: models.Completion{
				Summary: s.Completion.Summary,
				Goals: models.Goals{
					Duration:           duration,
					CallbackNeeded:     s.Completion.CallbackNeeded,
					ConfirmationNeeded: s.Completion.ConfirmationNeeded,
				},
			},
		})
	}
	return c, nil
}

func (q questionDoc) toQuestion() (models.Question, error) {
	out := models.Question{
		Question:     q.Question,
		ResponseType: models.ResponseType(q.ResponseType),
		Options:      q.Options,
		Emoji:        q.Emoji,
		Reasoning:    q.Reasoning,
		GoalsChecked: q.GoalsChecked,
	}
	if out.GoalsChecked == nil {
		out.GoalsChecked = []string{}
	}
	for _, cat := range q.Categories {
		out.Categories = append(out.Categories, models.Category{Title: cat.Title, Emoji: cat.Emoji, Options: cat.Options})
	}
	if err := out.CheckOptions(); err != nil {
		return models.Question{}, err
	}
	return out, nil
}

// Match picks the scenario for a visit reason. The last scenario is the fallback.
func (c *Client) Match(reason string) Scenario {
	lower := strings.ToLower(reason)
	for _, s := range c.scenarios {
		for _, kw := range s.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return s
			}
		}
	}
	return c.scenarios[len(c.scenarios)-1]
}

func missingFieldsError(fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return &client.StatusError{
		Code:   http.StatusBadRequest,
		Status: http.StatusText(http.StatusBadRequest),
		Body:   "Missing required fields: " + strings.Join(names, ", "),
	}
}

// GenerateQuestion returns the scenario question for the round implied by the
// history length, then the scenario completion.
func (c *Client) GenerateQuestion(_ context.Context, req models.GenerateQuestionRequest) (*models.Response, error) {
	if fields := req.IntakeData.MissingFields(); req.SessionID == "" && len(fields) > 0 {
		return nil, missingFieldsError(fields)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.newID()
	}

	scenario := c.Match(req.Reason)
	switch round := len(req.History); {
	case round == 0:
		q := scenario.First
		q.Question = strings.ReplaceAll(q.Question, "{reason}", strings.TrimSpace(req.Reason))
		return models.NewQuestionResponse(sessionID, q), nil
	case round < questionRounds:
		return models.NewQuestionResponse(sessionID, c.followUp), nil
	default:
		return models.NewCompletionResponse(sessionID, scenario.Completion), nil
	}
}

// FirstQuestion serves the embeddable form with the scenario's opening question.
func (c *Client) FirstQuestion(_ context.Context, intake models.IntakeData, _ string) (*models.Question, error) {
	if fields := intake.MissingFields(); len(fields) > 0 {
		return nil, missingFieldsError(fields)
	}
	q := c.Match(intake.Reason).First
	q.Question = strings.ReplaceAll(q.Question, "{reason}", strings.TrimSpace(intake.Reason))
	return &q, nil
}

// VetChat answers with a fixed, context aware hint.
func (c *Client) VetChat(_ context.Context, req models.VetChatRequest) (*models.VetChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" || req.Context == nil {
		return nil, &client.StatusError{
			Code:   http.StatusBadRequest,
			Status: http.StatusText(http.StatusBadRequest),
			Body:   "Message and context are required",
		}
	}
	name := req.Context.Name
	if name == "" {
		name = "your pet"
	}
	return &models.VetChatResponse{Response: fmt.Sprintf(
		"Thanks for your question about %s. This is a demo answer: watch for **worsening symptoms**, keep water available, "+
			"and contact the practice or the emergency service right away if %s collapses, has trouble breathing or bleeds heavily. "+
			"I don't replace a real veterinarian. 🐾",
		name, name,
	)}, nil
}

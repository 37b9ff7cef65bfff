package demo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fofrafo/dynamic-form/internal/client"
	"github.com/fofrafo/dynamic-form/internal/formsession"
	"github.com/fofrafo/dynamic-form/internal/models"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	c, err := New()
	require.NoError(t, err)
	return c
}

func TestEmbeddedScenariosParse(t *testing.T) {
	c := newClient(t)
	require.NotEmpty(t, c.scenarios)
	assert.Equal(t, "generic", c.scenarios[len(c.scenarios)-1].Name)

	for _, s := range c.scenarios {
		assert.NoError(t, s.First.CheckOptions(), s.Name)
		assert.True(t, s.Completion.Goals.Duration.Valid(), s.Name)
		assert.GreaterOrEqual(t, len(s.First.Categories), 2, s.Name)
	}
	// shared categories come through the YAML anchors
	assert.Equal(t, "General condition", c.Match("vomiting").First.Categories[1].Title)
	assert.Equal(t, "Urgency", c.Match("limping").First.Categories[2].Title)
}

func TestMatch(t *testing.T) {
	c := newClient(t)
	tests := []struct {
		reason string
		want   string
	}{
		{"Vomiting since yesterday", "gastro"},
		{"Erbrechen", "gastro"},
		{"coughing at night", "respiratory"},
		{"limping on the left leg", "limping"},
		{"Annual vaccination", "routine"},
		{"collapsed in the garden", "emergency"},
		{"Heavy bleeding from paw", "emergency"},
		{"strange lump", "generic"},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Match(tt.reason).Name)
		})
	}
}

func TestConversationEndsAfterTwoQuestions(t *testing.T) {
	c := newClient(t)
	c.newID = func() string { return "demo-1" }
	m := formsession.New(c)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, models.IntakeData{Species: "Dog", Age: "2 years", Name: "Buddy", Reason: "limping"}))
	q := m.CurrentQuestion()
	require.NotNil(t, q)
	assert.Equal(t, models.ResponseCategorizedChoice, q.ResponseType)
	assert.True(t, strings.Contains(q.Question, `"limping"`))

	sel, err := formsession.NewCategorizedSelection(q)
	require.NoError(t, err)
	_, err = sel.Toggle(0, "Holds paw up")
	require.NoError(t, err)
	answer, err := sel.Answer()
	require.NoError(t, err)
	require.NoError(t, m.Answer(ctx, answer))

	assert.Equal(t, "A few more important details:", m.CurrentQuestion().Question)
	require.NoError(t, m.Answer(ctx, "Behavior: Restless and nervous"))

	s := m.State()
	assert.Equal(t, formsession.StepCompleted, s.Step)
	assert.Equal(t, "demo-1", s.SessionID)
	assert.Equal(t, models.Duration30, m.Completion().Goals.Duration)
	assert.True(t, m.Completion().Goals.ConfirmationNeeded)
}

func TestMissingFieldsRejected(t *testing.T) {
	c := newClient(t)

	_, err := c.GenerateQuestion(context.Background(), models.GenerateQuestionRequest{
		IntakeData: models.IntakeData{Species: "Dog", Name: "Buddy"},
	})

	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 400, statusErr.Code)
	assert.Equal(t, "API error 400: Missing required fields: age, reason", err.Error())
}

func TestResponsesPassProtocolValidation(t *testing.T) {
	c := newClient(t)
	intake := models.IntakeData{Species: "Cat", Age: "4", Name: "Mia", Reason: "sneezing"}

	for round := 0; round <= 2; round++ {
		history := make([]models.QAPair, round)
		resp, err := c.GenerateQuestion(context.Background(), models.GenerateQuestionRequest{
			SessionID:  "fixed",
			IntakeData: intake,
			History:    history,
		})
		require.NoError(t, err)
		assert.NoError(t, resp.Validate())
		assert.Equal(t, "fixed", resp.SessionID)
		assert.Equal(t, round == 2, resp.IsCompleted())
	}
}

func TestFollowUpWithoutIntake(t *testing.T) {
	c := newClient(t)

	resp, err := c.GenerateQuestion(context.Background(), models.GenerateQuestionRequest{
		SessionID: "fixed",
		History:   []models.QAPair{{Question: "Q1", Answer: "A1"}},
	})
	require.NoError(t, err)
	assert.NoError(t, resp.Validate())
	assert.Equal(t, "fixed", resp.SessionID)
	assert.False(t, resp.IsCompleted())
}

func TestParseRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "::: nope"},
		{"no scenarios", "follow_up:\n  question: q\n  response_type: text\n  emoji: x\n"},
		{"bad duration", `
follow_up: {question: q, response_type: text, emoji: x}
scenarios:
  - name: s
    question: {question: q, response_type: text, emoji: x}
    completion: {summary: s, duration: 45min}
`},
		{"options mismatch", `
follow_up: {question: q, response_type: singleChoice, emoji: x}
scenarios:
  - name: s
    question: {question: q, response_type: text, emoji: x}
    completion: {summary: s, duration: 15min}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestVetChat(t *testing.T) {
	c := newClient(t)

	resp, err := c.VetChat(context.Background(), models.VetChatRequest{
		Message: "Should I worry?",
		Context: &models.VetChatContext{Name: "Buddy"},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "Buddy")

	_, err = c.VetChat(context.Background(), models.VetChatRequest{Message: "hi"})
	assert.Error(t, err)
}

func TestFirstQuestion(t *testing.T) {
	c := newClient(t)

	q, err := c.FirstQuestion(context.Background(), models.IntakeData{Species: "Dog", Age: "2", Name: "Buddy", Reason: "Erbrechen"}, "de")
	require.NoError(t, err)
	assert.Contains(t, q.Question, `"Erbrechen"`)
	assert.Equal(t, models.ResponseCategorizedChoice, q.ResponseType)

	// the scenario template stays untouched
	assert.Contains(t, c.Match("Erbrechen").First.Question, "{reason}")

	_, err = c.FirstQuestion(context.Background(), models.IntakeData{Species: "Dog"}, "en")
	assert.Error(t, err)
}

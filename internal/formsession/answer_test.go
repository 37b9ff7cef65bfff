package formsession

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fofrafo/dynamic-form/internal/models"
)

func intPtr(v int) *int { return &v }

func TestSingleChoice(t *testing.T) {
	q := &models.Question{ResponseType: models.ResponseSingleChoice, Options: []string{"Today", "Since yesterday"}}

	got, err := SingleChoice(q, "Since yesterday")
	require.NoError(t, err)
	assert.Equal(t, "Since yesterday", got)

	_, err = SingleChoice(q, "Last week")
	assert.ErrorIs(t, err, ErrUnknownOption)

	_, err = SingleChoice(&models.Question{ResponseType: models.ResponseText}, "Today")
	assert.ErrorIs(t, err, ErrWrongQuestion)
}

func TestText(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"  eats less  ", "eats less", nil},
		{"line\n", "line", nil},
		{"", "", ErrEmptyAnswer},
		{" \t\n", "", ErrEmptyAnswer},
	}

	for _, tt := range tests {
		got, err := Text(tt.in)
		assert.ErrorIs(t, err, tt.wantErr)
		assert.Equal(t, tt.want, got)
	}
}

func TestMultipleSelectionKeepsSelectionOrder(t *testing.T) {
	q := &models.Question{ResponseType: models.ResponseMultipleChoice, Options: []string{"Cough", "Sneeze", "Fever", "Lethargy"}}
	s, err := NewMultipleSelection(q)
	require.NoError(t, err)

	s.Toggle("Fever")
	s.Toggle("Cough")
	s.Toggle("Lethargy")
	s.Toggle("Cough")
	s.Toggle("Sneeze")

	got, err := s.Answer()
	require.NoError(t, err)
	assert.Equal(t, "Fever, Lethargy, Sneeze", got)
}

func TestMultipleSelectionIgnoresClicksBeyondMax(t *testing.T) {
	q := &models.Question{
		ResponseType:  models.ResponseMultipleChoice,
		Options:       []string{"a", "b", "c", "d"},
		MaxSelections: intPtr(2),
	}
	s, err := NewMultipleSelection(q)
	require.NoError(t, err)

	assert.True(t, s.Toggle("a"))
	assert.True(t, s.Toggle("b"))
	assert.False(t, s.Toggle("c"))
	assert.Equal(t, []string{"a", "b"}, s.Selected())

	// deselecting frees a slot
	assert.True(t, s.Toggle("a"))
	assert.True(t, s.Toggle("d"))
	assert.Equal(t, []string{"b", "d"}, s.Selected())
}

func TestMultipleSelectionMinimum(t *testing.T) {
	q := &models.Question{
		ResponseType:  models.ResponseMultipleChoice,
		Options:       []string{"a", "b", "c"},
		MinSelections: intPtr(2),
	}
	s, err := NewMultipleSelection(q)
	require.NoError(t, err)

	assert.False(t, s.CanConfirm())
	_, err = s.Answer()
	assert.ErrorIs(t, err, ErrEmptyAnswer)

	s.Toggle("c")
	assert.False(t, s.CanConfirm())
	_, err = s.Answer()
	assert.ErrorIs(t, err, ErrBelowMinimum)

	s.Toggle("a")
	assert.True(t, s.CanConfirm())
	got, err := s.Answer()
	require.NoError(t, err)
	assert.Equal(t, "c, a", got)
}

func TestMultipleSelectionIgnoresUnknownOption(t *testing.T) {
	s, err := NewMultipleSelection(&models.Question{ResponseType: models.ResponseMultipleChoice, Options: []string{"a"}})
	require.NoError(t, err)
	assert.False(t, s.Toggle("z"))
	assert.Empty(t, s.Selected())
}

func categorized() *models.Question {
	return &models.Question{
		ResponseType: models.ResponseCategorizedChoice,
		Categories: []models.Category{
			{Title: "Symptoms", Emoji: "🤒", Options: []string{"Vomiting", "Diarrhea", "Fever"}},
			{Title: "Behavior", Emoji: "😴", Options: []string{"Lethargic", "Restless"}},
			{Title: "Onset", Emoji: "⏰", Options: []string{"Today", "Several days"}},
		},
	}
}

func TestCategorizedSelectionOmitsEmptyCategories(t *testing.T) {
	s, err := NewCategorizedSelection(categorized())
	require.NoError(t, err)

	_, err = s.Toggle(0, "Fever")
	require.NoError(t, err)
	_, err = s.Toggle(2, "Today")
	require.NoError(t, err)
	_, err = s.Toggle(0, "Vomiting")
	require.NoError(t, err)

	got, err := s.Answer()
	require.NoError(t, err)
	assert.Equal(t, "Symptoms: Fever, Vomiting | Onset: Today", got)
	assert.Len(t, strings.Split(got, " | "), 2)
	assert.NotContains(t, got, "Behavior")
}

func TestCategorizedSelectionBlocksEmptySubmit(t *testing.T) {
	s, err := NewCategorizedSelection(categorized())
	require.NoError(t, err)
	assert.False(t, s.CanConfirm())

	_, _ = s.Toggle(1, "Restless")
	_, _ = s.Toggle(1, "Restless")
	assert.False(t, s.CanConfirm())

	_, err = s.Answer()
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestCategorizedSelectionRejectsBadInput(t *testing.T) {
	s, err := NewCategorizedSelection(categorized())
	require.NoError(t, err)

	_, err = s.Toggle(5, "Today")
	assert.ErrorIs(t, err, ErrNoSuchCategory)
	_, err = s.Toggle(1, "Today")
	assert.ErrorIs(t, err, ErrUnknownOption)

	_, err = NewCategorizedSelection(&models.Question{ResponseType: models.ResponseMultipleChoice})
	assert.ErrorIs(t, err, ErrWrongQuestion)
}

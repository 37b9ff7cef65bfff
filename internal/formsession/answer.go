package formsession

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fofrafo/dynamic-form/internal/models"
)

const (
	optionSeparator   = ", "
	categorySeparator = " | "
)

var (
	ErrEmptyAnswer    = errors.New("answer is empty")
	ErrUnknownOption  = errors.New("option is not offered by the question")
	ErrBelowMinimum   = errors.New("not enough options selected")
	ErrWrongQuestion  = errors.New("question has a different response type")
	ErrNoSuchCategory = errors.New("category index out of range")
)

// SingleChoice returns the chosen option verbatim.
func SingleChoice(q *models.Question, option string) (string, error) {
	if q.ResponseType != models.ResponseSingleChoice {
		return "", ErrWrongQuestion
	}
	if !contains(q.Options, option) {
		return "", fmt.Errorf("%q: %w", option, ErrUnknownOption)
	}
	return option, nil
}

// Text trims free text; blank input is blocked.
func Text(input string) (string, error) {
	answer := strings.TrimSpace(input)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

// MultipleSelection tracks picks for a multipleChoice question in the order
// they were made.
type MultipleSelection struct {
	options  []string
	min      int
	max      int
	selected []string
}

func NewMultipleSelection(q *models.Question) (*MultipleSelection, error) {
	if q.ResponseType != models.ResponseMultipleChoice {
		return nil, ErrWrongQuestion
	}
	s := &MultipleSelection{options: q.Options}
	if q.MinSelections != nil {
		s.min = *q.MinSelections
	}
	if q.MaxSelections != nil {
		s.max = *q.MaxSelections
	}
	return s, nil
}

// Toggle selects or deselects option and reports whether anything changed.
// Selecting past the maximum is ignored.
func (s *MultipleSelection) Toggle(option string) bool {
	if !contains(s.options, option) {
		return false
	}
	if i := indexOf(s.selected, option); i >= 0 {
		s.selected = append(s.selected[:i], s.selected[i+1:]...)
		return true
	}
	if s.max > 0 && len(s.selected) >= s.max {
		return false
	}
	s.selected = append(s.selected, option)
	return true
}

func (s *MultipleSelection) IsSelected(option string) bool {
	return indexOf(s.selected, option) >= 0
}

func (s *MultipleSelection) Selected() []string {
	return append([]string(nil), s.selected...)
}

// CanConfirm is false until at least one option, and at least the minimum, is picked.
func (s *MultipleSelection) CanConfirm() bool {
	return len(s.selected) > 0 && len(s.selected) >= s.min
}

func (s *MultipleSelection) Answer() (string, error) {
	if len(s.selected) == 0 {
		return "", ErrEmptyAnswer
	}
	if len(s.selected) < s.min {
		return "", fmt.Errorf("%d of %d: %w", len(s.selected), s.min, ErrBelowMinimum)
	}
	return strings.Join(s.selected, optionSeparator), nil
}

// CategorizedSelection tracks picks per category for a categorizedChoice question.
type CategorizedSelection struct {
	categories []models.Category
	selected   [][]string
}

func NewCategorizedSelection(q *models.Question) (*CategorizedSelection, error) {
	if q.ResponseType != models.ResponseCategorizedChoice {
		return nil, ErrWrongQuestion
	}
	return &CategorizedSelection{
		categories: q.Categories,
		selected:   make([][]string, len(q.Categories)),
	}, nil
}

func (s *CategorizedSelection) Toggle(category int, option string) (bool, error) {
	if category < 0 || category >= len(s.categories) {
		return false, ErrNoSuchCategory
	}
	if !contains(s.categories[category].Options, option) {
		return false, fmt.Errorf("%q: %w", option, ErrUnknownOption)
	}
	picks := s.selected[category]
	if i := indexOf(picks, option); i >= 0 {
		s.selected[category] = append(picks[:i], picks[i+1:]...)
	} else {
		s.selected[category] = append(picks, option)
	}
	return true, nil
}

func (s *CategorizedSelection) Selected(category int) []string {
	if category < 0 || category >= len(s.selected) {
		return nil
	}
	return append([]string(nil), s.selected[category]...)
}

func (s *CategorizedSelection) CanConfirm() bool {
	for _, picks := range s.selected {
		if len(picks) > 0 {
			return true
		}
	}
	return false
}

// Answer renders "<title>: a, b" for every category with picks, in payload
// order, joined by " | ".
func (s *CategorizedSelection) Answer() (string, error) {
	var segments []string
	for i, picks := range s.selected {
		if len(picks) == 0 {
			continue
		}
		segments = append(segments, s.categories[i].Title+": "+strings.Join(picks, optionSeparator))
	}
	if len(segments) == 0 {
		return "", ErrEmptyAnswer
	}
	return strings.Join(segments, categorySeparator), nil
}

func contains(list []string, v string) bool {
	return indexOf(list, v) >= 0
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

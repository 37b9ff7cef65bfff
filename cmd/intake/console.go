package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fofrafo/dynamic-form/internal/client"
	"github.com/fofrafo/dynamic-form/internal/formsession"
	"github.com/fofrafo/dynamic-form/internal/models"
)

type console struct {
	in  *bufio.Scanner
	out io.Writer
}

func newConsole(in io.Reader, out io.Writer) *console {
	return &console{in: bufio.NewScanner(in), out: out}
}

func (c *console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// readLine prints prompt and returns the next input line, or io.EOF.
func (c *console) readLine(prompt string) (string, error) {
	c.printf("%s", prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// fillIntake asks for every field the flags left blank.
func (c *console) fillIntake(d *models.IntakeData) error {
	fields := []struct {
		label string
		value *string
	}{
		{"Species", &d.Species},
		{"Age", &d.Age},
		{"Name", &d.Name},
		{"Reason for the visit", &d.Reason},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.value) != "" {
			continue
		}
		v, err := c.readLine(f.label + ": ")
		if err != nil {
			return err
		}
		*f.value = v
	}
	return nil
}

func (c *console) renderQuestion(round int, q *models.Question) {
	c.printf("\n%s  %d. %s\n", q.Emoji, round, q.Question)

	switch q.ResponseType {
	case models.ResponseSingleChoice:
		for i, o := range q.Options {
			c.printf("   %d) %s\n", i+1, o)
		}
		c.printf("Pick one number.\n")
	case models.ResponseMultipleChoice:
		for i, o := range q.Options {
			c.printf("   %d) %s\n", i+1, o)
		}
		c.printf("Pick numbers separated by commas%s.\n", selectionLimits(q))
	case models.ResponseCategorizedChoice:
		for ci, cat := range q.Categories {
			c.printf("   %s %s\n", cat.Emoji, cat.Title)
			for oi, o := range cat.Options {
				c.printf("      %d.%d) %s\n", ci+1, oi+1, o)
			}
		}
		c.printf("Pick entries like 1.2 separated by commas.\n")
	default:
		c.printf("Type your answer.\n")
	}
}

func selectionLimits(q *models.Question) string {
	switch {
	case q.MinSelections != nil && q.MaxSelections != nil:
		return fmt.Sprintf(" (%d to %d)", *q.MinSelections, *q.MaxSelections)
	case q.MinSelections != nil:
		return fmt.Sprintf(" (at least %d)", *q.MinSelections)
	case q.MaxSelections != nil:
		return fmt.Sprintf(" (at most %d)", *q.MaxSelections)
	}
	return ""
}

// askAnswer keeps prompting until the input forms a valid answer.
func (c *console) askAnswer(q *models.Question) (string, error) {
	for {
		input, err := c.readLine("> ")
		if err != nil {
			return "", err
		}
		answer, err := buildAnswer(q, input)
		if err == nil {
			return answer, nil
		}
		c.printf("   %v\n", err)
	}
}

// buildAnswer turns terminal input into the answer string sent to the backend,
// using a fresh selection for every call.
func buildAnswer(q *models.Question, input string) (string, error) {
	switch q.ResponseType {
	case models.ResponseSingleChoice:
		option := input
		if n, err := strconv.Atoi(input); err == nil {
			if n < 1 || n > len(q.Options) {
				return "", fmt.Errorf("%d is not a listed option", n)
			}
			option = q.Options[n-1]
		}
		return formsession.SingleChoice(q, option)

	case models.ResponseMultipleChoice:
		sel, err := formsession.NewMultipleSelection(q)
		if err != nil {
			return "", err
		}
		for _, tok := range splitPicks(input) {
			n, err := strconv.Atoi(tok)
			if err != nil || n < 1 || n > len(q.Options) {
				return "", fmt.Errorf("%q is not a listed option", tok)
			}
			// picks past the maximum are dropped
			sel.Toggle(q.Options[n-1])
		}
		return sel.Answer()

	case models.ResponseCategorizedChoice:
		sel, err := formsession.NewCategorizedSelection(q)
		if err != nil {
			return "", err
		}
		for _, tok := range splitPicks(input) {
			ci, oi, ok := parsePick(tok)
			if !ok || ci >= len(q.Categories) || oi >= len(q.Categories[ci].Options) {
				return "", fmt.Errorf("%q is not a listed option", tok)
			}
			if _, err := sel.Toggle(ci, q.Categories[ci].Options[oi]); err != nil {
				return "", err
			}
		}
		return sel.Answer()
	}
	return formsession.Text(input)
}

func splitPicks(input string) []string {
	var picks []string
	for _, tok := range strings.Split(input, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			picks = append(picks, tok)
		}
	}
	return picks
}

// parsePick reads "2.3" as category 2, option 3 and returns zero based indexes.
func parsePick(tok string) (int, int, bool) {
	c, o, found := strings.Cut(tok, ".")
	if !found {
		return 0, 0, false
	}
	ci, err1 := strconv.Atoi(c)
	oi, err2 := strconv.Atoi(o)
	if err1 != nil || err2 != nil || ci < 1 || oi < 1 {
		return 0, 0, false
	}
	return ci - 1, oi - 1, true
}

func (c *console) renderCompletion(sessionID string, comp *models.Completion) {
	c.printf("\n✓ Intake complete (session %s)\n", sessionID)
	c.printf("%s\n", comp.Summary)
	c.printf("   Appointment length: %s\n", comp.Goals.Duration)
	if comp.Goals.CallbackNeeded {
		c.printf("   The clinic will call you back.\n")
	}
	if comp.Goals.ConfirmationNeeded {
		c.printf("   The appointment needs confirmation by the clinic.\n")
	}
}

func (c *console) renderStats(s client.Summary) {
	c.printf("\nAPI calls: %d, questions: %d, completions: %d, errors: %d\n",
		s.APICalls, s.Questions, s.Completions, s.Errors)
}

// call runs fn with a per-request timeout when one is set.
func call(timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}

// runSession walks one intake from pet data to completion. Request failures
// offer a retry of the same round.
func (c *console) runSession(gen formsession.Generator, intake models.IntakeData, timeout time.Duration) error {
	if err := c.fillIntake(&intake); err != nil {
		return err
	}

	m := formsession.New(gen)
	err := call(timeout, func(ctx context.Context) error { return m.Start(ctx, intake) })
	var validationErr *formsession.ValidationError
	if errors.As(err, &validationErr) {
		return err
	}

	for {
		s := m.State()
		switch s.Step {
		case formsession.StepCompleted:
			c.renderCompletion(s.SessionID, m.Completion())
			return nil

		case formsession.StepError:
			c.printf("✗ %s\n", s.Err)
			again, err := c.readLine("Retry? [y/N] ")
			if err != nil || !strings.EqualFold(again, "y") {
				return fmt.Errorf("intake failed: %s", s.Err)
			}
			err = call(timeout, m.Retry)
			if err != nil && m.State().Step != formsession.StepError {
				return err
			}

		case formsession.StepQuestions:
			q := m.CurrentQuestion()
			c.renderQuestion(len(s.History)+1, q)
			answer, err := c.askAnswer(q)
			if err != nil {
				return err
			}
			err = call(timeout, func(ctx context.Context) error { return m.Answer(ctx, answer) })
			if err != nil && m.State().Step != formsession.StepError {
				return err
			}

		default:
			return fmt.Errorf("intake stopped in step %s", s.Step)
		}
	}
}

type vetChatter interface {
	VetChat(ctx context.Context, req models.VetChatRequest) (*models.VetChatResponse, error)
}

// runChat asks one question, or keeps asking until an empty line when message
// is empty. Earlier turns are sent along as chat history.
func (c *console) runChat(chat vetChatter, intake models.IntakeData, message string, timeout time.Duration) error {
	if err := c.fillIntake(&intake); err != nil {
		return err
	}
	d := intake.Trimmed()
	chatCtx := &models.VetChatContext{Name: d.Name, Species: d.Species, Age: d.Age, Reason: d.Reason}

	interactive := message == ""
	for {
		if interactive {
			var err error
			message, err = c.readLine("You: ")
			if errors.Is(err, io.EOF) || (err == nil && message == "") {
				return nil
			}
			if err != nil {
				return err
			}
		}

		var resp *models.VetChatResponse
		err := call(timeout, func(ctx context.Context) error {
			var err error
			resp, err = chat.VetChat(ctx, models.VetChatRequest{Message: message, Context: chatCtx})
			return err
		})
		if err != nil {
			return err
		}
		c.printf("🩺 %s\n", resp.Response)

		if !interactive {
			return nil
		}
		chatCtx.ChatHistory = append(chatCtx.ChatHistory,
			models.ChatTurn{Type: "user", Content: message},
			models.ChatTurn{Type: "assistant", Content: resp.Response},
		)
	}
}

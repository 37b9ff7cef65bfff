package handlers

import (
	"bytes"
	"context"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/fofrafo/dynamic-form/internal/middleware"
	"github.com/fofrafo/dynamic-form/internal/models"
	"github.com/fofrafo/dynamic-form/internal/services"
)

type widgetQuestioner interface {
	FirstQuestion(ctx context.Context, intake models.IntakeData, lang string) (*models.Question, error)
}

// WidgetHandler serves the embeddable HTML form. Errors are HTML pages too,
// since the response usually lands in an iframe.
type WidgetHandler struct {
	questioner widgetQuestioner
}

func NewWidgetHandler(questioner widgetQuestioner) *WidgetHandler {
	return &WidgetHandler{questioner: questioner}
}

type widgetTexts struct {
	Title       string
	PetInfo     string
	Species     string
	Age         string
	Name        string
	Reason      string
	Question    string
	Placeholder string
	Next        string
	Required    string
	ThankYou    string
	Recorded    string
	YourAnswers string
}

var widgetLang = map[string]widgetTexts{
	services.LangEnglish: {
		Title:       "Dynamic Veterinary Form",
		PetInfo:     "Pet Information",
		Species:     "Animal:",
		Age:         "Age:",
		Name:        "Name:",
		Reason:      "Reason:",
		Question:    "Question",
		Placeholder: "Your answer...",
		Next:        "Next Question",
		Required:    "Please answer the question",
		ThankYou:    "Thank you!",
		Recorded:    "Your information has been recorded. A veterinarian will contact you.",
		YourAnswers: "Your answers:",
	},
	services.LangGerman: {
		Title:       "Dynamischer Tierarzt Fragebogen",
		PetInfo:     "Tierinformationen",
		Species:     "Tierart:",
		Age:         "Alter:",
		Name:        "Name:",
		Reason:      "Anlass:",
		Question:    "Frage",
		Placeholder: "Ihre Antwort...",
		Next:        "Nächste Frage",
		Required:    "Bitte beantworten Sie die Frage",
		ThankYou:    "Vielen Dank!",
		Recorded:    "Ihre Angaben wurden erfasst. Ein Tierarzt wird sich mit Ihnen in Verbindung setzen.",
		YourAnswers: "Ihre Antworten:",
	},
}

type widgetPage struct {
	Lang     string
	T        widgetTexts
	Intake   models.IntakeData
	Question *models.Question
}

// InputType is the input element used for the question's options.
func (p widgetPage) InputType() string {
	if p.Question.ResponseType == models.ResponseSingleChoice {
		return "radio"
	}
	return "checkbox"
}

type widgetErrorPage struct {
	Title     string
	Heading   string
	Lines     []string
	RequestID string
}

var (
	widgetTmpl      = template.Must(template.New("form").Parse(widgetFormHTML))
	widgetErrorTmpl = template.Must(template.New("error").Parse(widgetErrorHTML))
)

// firstParam returns the first non-blank query value among names.
func firstParam(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, n := range names {
		if v := strings.TrimSpace(q.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

func (h *WidgetHandler) DynamicForm(w http.ResponseWriter, r *http.Request) {
	intake := models.IntakeData{
		Species: firstParam(r, "species", "tierart"),
		Age:     firstParam(r, "age", "alter"),
		Name:    firstParam(r, "name"),
		Reason:  firstParam(r, "reason", "anlass"),
	}

	if len(intake.MissingFields()) > 0 {
		writeHTML(w, http.StatusBadRequest, widgetErrorTmpl, widgetErrorPage{
			Title:   "Missing Parameters",
			Heading: "🙅 Missing Parameters",
			Lines: []string{
				"Required parameters: species, age, name, reason (or tierart, alter, name, anlass)",
				"Example: ?species=Dog&age=2%20years&name=Buddy&reason=limping",
			},
		})
		return
	}

	lang := services.DetectLanguage(r.Header.Get("Accept-Language"))
	log.Printf("Dynamic form (%s): %s, %s, %s, %s", lang, intake.Species, intake.Age, intake.Name, intake.Reason)

	q, err := h.questioner.FirstQuestion(r.Context(), intake, lang)
	if err != nil {
		log.Printf("Dynamic form error: %v", err)
		writeHTML(w, http.StatusInternalServerError, widgetErrorTmpl, widgetErrorPage{
			Title:     "Service Error",
			Heading:   "⚠️ Service Error",
			Lines:     []string{"The dynamic form service encountered an error.", "Please try again in a few moments."},
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		})
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeHTML(w, http.StatusOK, widgetTmpl, widgetPage{
		Lang:     lang,
		T:        widgetLang[lang],
		Intake:   intake,
		Question: q,
	})
}

// writeHTML renders into a buffer first so a template error still yields a
// clean 500 instead of a half written page.
func writeHTML(w http.ResponseWriter, status int, tmpl *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("Failed to render %s template: %v", tmpl.Name(), err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

package services

import (
	"fmt"
	"strings"

	"github.com/fofrafo/dynamic-form/internal/models"
)

const intakeRolePrompt = `You are a veterinarian at a small animal practice. A pet owner has booked an appointment and described the reason in free text. You also know the species, the age and the name of the pet.

Your task is to decide, as efficiently as possible and with ONLY 1-2 questions:
1. whether the problem is serious and needs prompt treatment (appointment duration),
2. whether the veterinarian needs to call the owner back,
3. whether the appointment needs a manual confirmation.

Available response types:
- singleChoice: exactly one option from "options"
- multipleChoice: several options from "options"
- categorizedChoice: options grouped in "categories" (symptoms, behavior, timing)
- text: free text input

Emergency indicators (callback needed): shortness of breath, collapse, severe pain, suspected poisoning, trauma, neurological symptoms, heavy bleeding, blood in stool combined with lethargy.

Do NOT make medical diagnoses. You prepare appointments, you do not diagnose.
Answer with a single JSON object and nothing else.`

const questionFormat = `To ask a question respond with:
{"question": "...", "responseType": "categorizedChoice", "categories": [{"title": "Symptoms", "emoji": "🤒", "options": ["..."]}], "emoji": "📋", "reasoning": "...", "goalsChecked": ["severity", "callbackNeeded", "duration"]}
Use "options" instead of "categories" for singleChoice and multipleChoice, and neither for text.`

const completionFormat = `When you can judge all three goals respond with:
{"status": "completed", "summary": "Appointment preparation complete. ...", "goals": {"duration": "15min" or "30min", "callbackNeeded": true or false, "confirmationNeeded": true or false}}

Examples:
- mild symptoms, normally active, since yesterday: 15min, no callback, no confirmation
- severe symptoms, lethargic, started today: 30min, callback, confirmation
- emergency indicators: 30min, immediate callback, confirmation`

// intakeSystemPrompt returns the initial variant for an empty history and the
// follow-up variant once answers exist.
func intakeSystemPrompt(round int) string {
	var b strings.Builder
	b.WriteString(intakeRolePrompt)
	b.WriteString("\n\n")
	b.WriteString(questionFormat)
	b.WriteString("\n\n")
	b.WriteString(completionFormat)
	b.WriteString("\n\n")
	if round == 0 {
		b.WriteString("This is the first question. Prefer ONE categorizedChoice question that covers symptoms, behavior and timing at once.")
	} else {
		b.WriteString(fmt.Sprintf("The owner has answered %d question(s). Complete the intake if the goals can be judged, otherwise ask at most one more question.", round))
	}
	return b.String()
}

func intakeLine(d models.IntakeData) string {
	return fmt.Sprintf("Species: %s, Age: %s, Name: %s, Reason: %s", d.Species, d.Age, d.Name, d.Reason)
}

// intakeMessages builds the transcript the model continues: the intake line
// followed by one assistant/user pair per answered question.
func intakeMessages(d models.IntakeData, history []models.QAPair) []models.ChatMessage {
	messages := make([]models.ChatMessage, 0, 2+2*len(history))
	messages = append(messages,
		models.ChatMessage{Role: roleSystem, Content: intakeSystemPrompt(len(history))},
		models.ChatMessage{Role: roleUser, Content: intakeLine(d)},
	)
	for _, qa := range history {
		messages = append(messages,
			models.ChatMessage{Role: roleAssistant, Content: qa.Question},
			models.ChatMessage{Role: roleUser, Content: qa.Answer},
		)
	}
	return messages
}

func widgetSystemPrompt(lang string) string {
	if lang == LangGerman {
		return `Du bist ein erfahrener Tierarzt-Assistent. Basierend auf den Informationen über das Tier, stelle eine spezifische, medizinisch relevante Frage, die dir hilft, die Situation besser zu verstehen. Stelle nur EINE Frage. Formatiere deine Antwort als JSON mit: {"question": "deine frage", "type": "multiple_choice", "options": ["Option 1", "Option 2", "Option 3"]}`
	}
	return `You are an experienced veterinary assistant. Based on the information about the pet, ask a specific, medically relevant question that helps you better understand the situation. Ask only ONE question. Format your response as JSON with: {"question": "your question", "type": "multiple_choice", "options": ["Option 1", "Option 2", "Option 3"]}`
}

func widgetUserLine(d models.IntakeData, lang string) string {
	if lang == LangGerman {
		return fmt.Sprintf("Tierart: %s, Alter: %s, Name: %s, Anlass: %s", d.Species, d.Age, d.Name, d.Reason)
	}
	return fmt.Sprintf("Animal type: %s, Age: %s, Name: %s, Reason: %s", d.Species, d.Age, d.Name, d.Reason)
}

func vetChatSystemPrompt(c *models.VetChatContext) string {
	var b strings.Builder
	b.WriteString("You are Dr. AI, an experienced veterinary assistant. You help pet owners with sound, responsible advice.\n\n")
	b.WriteString("PET CONTEXT:\n")
	fmt.Fprintf(&b, "- Name: %s\n- Species: %s\n- Age: %s\n- Reason for the visit: %s\n\n", c.Name, c.Species, c.Age, c.Reason)

	if len(c.FormAnswers) > 0 {
		b.WriteString("ANSWERS FROM THE APPOINTMENT PREPARATION:\n")
		for i, qa := range c.FormAnswers {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "Question: %s\nAnswer: %s\n", qa.Question, qa.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString(`YOUR ROLE:
- Give practical tips the owner can apply right away
- Explain warning signs and when immediate help is needed
- Reassure when worries are unfounded
- Refer serious symptoms to a real veterinarian

RULES:
- NO diagnoses
- NO prescriptions
- In an emergency: contact a veterinarian or the emergency service immediately
- Always point out that you do not replace a real veterinarian

STYLE: friendly and professional, occasional fitting emojis, Markdown for longer answers (lists, **bold**).

Reply helpfully to the owner's next message.`)
	return b.String()
}

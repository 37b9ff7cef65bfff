package models

// ChatMessage represents a single message sent to the language model.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatTurn is one entry of the owner's follow-up conversation.
type ChatTurn struct {
	Type    string `json:"type"` // "user" or "assistant"
	Content string `json:"content"`
}

type VetChatContext struct {
	Name        string     `json:"name"`
	Species     string     `json:"species"`
	Age         string     `json:"age"`
	Reason      string     `json:"reason"`
	FormAnswers []QAPair   `json:"formAnswers"`
	ChatHistory []ChatTurn `json:"chatHistory"`
}

// VetChatRequest is the payload sent to the vet chat endpoint.
type VetChatRequest struct {
	Message string          `json:"message"`
	Context *VetChatContext `json:"context"`
}

// VetChatResponse is the reply from the assistant.
type VetChatResponse struct {
	Response string `json:"response"`
}

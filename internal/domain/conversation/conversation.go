// Package conversation defines the persisted Q&A exchange record.
package conversation

import "time"

// Conversation is one answered question with its retrieval and cost
// breakdown, persisted for monitoring and feedback correlation.
type Conversation struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Strategy  string    `json:"strategy"`
	Model     string    `json:"model"`
	RecipeIDs []string  `json:"recipe_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	ResponseTime float64 `json:"response_time"`

	Relevance            string `json:"relevance,omitempty"`
	RelevanceExplanation string `json:"relevance_explanation,omitempty"`

	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EvalPromptTokens int     `json:"eval_prompt_tokens"`
	EvalComplTokens  int     `json:"eval_completion_tokens"`
	Cost             float64 `json:"openai_cost"`
}

// Feedback is a thumbs up/down on a conversation.
type Feedback struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Positive       bool      `json:"positive"`
	CreatedAt      time.Time `json:"created_at"`
}

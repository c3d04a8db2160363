package types

// Persona is the character a conversation surface talks as. Immutable once
// loaded for a turn; either a built-in preset or a user-authored companion.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Subtitle    string `json:"subtitle"`
	Instruction string `json:"instruction"`
	// Greeting seeds a freshly created session log.
	Greeting string `json:"greeting,omitempty"`
	// AvatarPrompt drives regenerated portraits and spontaneous images.
	AvatarPrompt string `json:"avatar_prompt,omitempty"`
	// AvatarRef points at the stored portrait, if any.
	AvatarRef string `json:"avatar_ref,omitempty"`
}

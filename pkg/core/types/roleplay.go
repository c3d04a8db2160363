package types

// World is a roleplay setting: a name plus the storyteller instruction that
// frames every turn in it.
type World struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Instruction string `json:"instruction"`
}

// Character is the role the user plays inside a world.
type Character struct {
	Name        string `json:"name"`
	Personality string `json:"personality"`
}

// Story is a durable named binding of a world and a character. Each story owns
// an independent message log keyed by its ID. Stories are created once, deleted
// explicitly, and otherwise only ever grow their log.
type Story struct {
	ID        string    `json:"id"`
	World     World     `json:"world"`
	Character Character `json:"character"`
}

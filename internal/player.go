package internal

type Player struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`

	Connected        bool   `json:"connected"`
	HasGuessed       bool   `json:"hasGuessed"`
	LastGuessCorrect bool   `json:"lastGuessCorrect"`
	LastGuessSketch  string `json:"lastGuessSketch"`
}

// ResetRoundState clears the per-round guess flags.
func (p *Player) ResetRoundState() {
	p.HasGuessed = false
	p.LastGuessCorrect = false
	p.LastGuessSketch = ""
}

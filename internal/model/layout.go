package model

// LayoutComponent is one typed entry in a layout plan, in render order.
type LayoutComponent struct {
	Type  string         `json:"type"`
	Props map[string]any `json:"props,omitempty"`
}

// LayoutPlan is the structured output of the layout orchestration step.
// The orchestrator boundary guarantees callers always receive this shape,
// never a bare error: on failure Components is empty and ContactCTA is true.
type LayoutPlan struct {
	Components  []LayoutComponent `json:"layoutPlan"`
	Explanation string            `json:"explanation"`
	ContactCTA  bool              `json:"contactCTA"`
}

// ConversationTurn is a single prior turn passed through to the orchestrator.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

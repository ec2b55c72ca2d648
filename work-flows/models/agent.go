package models

// Agent is a tutoring assistant configured on the backend.
type Agent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider,omitzero"`
}

package types

// APIResponse is the envelope every network collaborator replies with.
// Mutation paths must treat Success == false as a rejected operation and
// leave local state unchanged.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

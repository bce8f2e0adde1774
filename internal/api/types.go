package api

// Commands understood by Query.
const (
	CommandListModels = "list_models"
	CommandGetMove    = "get_move"
)

// Request is the JSON body posted to /api.
type Request struct {
	Command string  `json:"command,omitempty"`
	Model   *string `json:"model,omitempty"`
	PGN     *string `json:"pgn,omitempty"`
}

// ModelInfo is one catalog entry.
type ModelInfo struct {
	InternalName string `json:"internalName"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description,omitempty"`
}

// Response is the JSON reply. Error is null on success.
type Response struct {
	Error  *string     `json:"error"`
	Models []ModelInfo `json:"models,omitempty"`
	PGN    *string     `json:"pgn,omitempty"`
}

// Error is a failed API response.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// ListModelsRequest builds a list_models request.
func ListModelsRequest() Request {
	return Request{Command: CommandListModels}
}

// GetMoveRequest builds a get_move request.
func GetMoveRequest(model, pgn string) Request {
	return Request{Command: CommandGetMove, Model: &model, PGN: &pgn}
}

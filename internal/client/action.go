package client

import "errors"

// ActionState is the uniform outcome of one user action. It is never
// retried automatically.
type ActionState struct {
	IsLoading bool   `json:"isLoading"`
	IsSuccess bool   `json:"isSuccess"`
	IsError   bool   `json:"isError"`
	Message   string `json:"message"`
}

// Loading is the state while an action is in flight.
func Loading() ActionState {
	return ActionState{IsLoading: true}
}

// Done converts the result of an action into its final state. API errors
// surface their server message; anything else its error text.
func Done(message string, err error) ActionState {
	if err == nil {
		return ActionState{IsSuccess: true, Message: message}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return ActionState{IsError: true, Message: apiErr.Message}
	}
	return ActionState{IsError: true, Message: err.Error()}
}

// Run executes fn and reports its outcome.
func Run(fn func() (string, error)) ActionState {
	return Done(fn())
}

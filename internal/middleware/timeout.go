package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-dataset-registry/internal/model"
)

// Timeout bounds handler execution. The deadline rides on the request
// context, so storage reads and upload parsing observe cancellation instead
// of writing into a dead connection. Marshaling the body once up front keeps
// the timeout path allocation-free.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	body, err := json.Marshal(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "REQUEST_TIMEOUT",
			Message: "request exceeded the processing deadline",
		},
	})
	if err != nil {
		body = []byte(`{"success":false}`)
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}

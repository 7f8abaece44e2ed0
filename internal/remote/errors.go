package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Service names used in ServiceError.
const (
	ServiceTranscription = "transcription"
	ServiceExtraction    = "extraction"
	ServiceModels        = "models"
)

// ServiceError reports a remote call that did not succeed. Status is zero
// when no HTTP response was received.
type ServiceError struct {
	Service string
	Status  int
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s service error: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("%s service error (status %d): %s", e.Service, e.Status, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err carries a ServiceError and returns it.
func IsServiceError(err error) (*ServiceError, bool) {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr, true
	}
	return nil, false
}

// serviceError maps go-openai failures onto ServiceError.
func serviceError(service string, err error) error {
	if err == nil {
		return nil
	}

	out := &ServiceError{Service: service, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		out.Status = apiErr.HTTPStatusCode
		out.Message = strings.TrimSpace(apiErr.Message)
	case errors.As(err, &reqErr):
		out.Status = reqErr.HTTPStatusCode
		if reqErr.Err != nil {
			out.Message = reqErr.Err.Error()
		}
	default:
		out.Message = err.Error()
	}

	if out.Message == "" && out.Status != 0 {
		out.Message = http.StatusText(out.Status)
	}
	if out.Message == "" {
		out.Message = "request failed"
	}
	return out
}

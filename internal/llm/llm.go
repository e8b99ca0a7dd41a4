package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

type TextRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type ImageRequest struct {
	Prompt string
	Width  int
	Height int
}

type TextGenerator interface {
	Name() string
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// ImageGenerator returns encoded image bytes (png, jpeg or webp). The image
// may not match the requested size exactly.
type ImageGenerator interface {
	Name() string
	GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error)
}

var (
	ErrNoResponse    = errors.New("no response")
	ErrEmptyResponse = errors.New("empty response")
)

// GenerationServiceError is returned by every provider adapter.
type GenerationServiceError struct {
	Provider   string
	Op         string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *GenerationServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *GenerationServiceError) Unwrap() error { return e.Err }

func (e *GenerationServiceError) IsRetryable() bool { return e.Retryable }

func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
		return true
	}
	return code >= 500 && code < 600
}

// IsTransient reports timeouts and network failures.
func IsTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// NewError builds a GenerationServiceError for a failure that carries no
// HTTP status.
func NewError(provider, op string, err error) *GenerationServiceError {
	return &GenerationServiceError{
		Provider:  provider,
		Op:        op,
		Retryable: IsTransient(err),
		Err:       err,
	}
}

// NewStatusError builds a GenerationServiceError for an HTTP API failure.
func NewStatusError(provider, op string, status int, err error) *GenerationServiceError {
	return &GenerationServiceError{
		Provider:   provider,
		Op:         op,
		StatusCode: status,
		Retryable:  IsRetryableStatus(status),
		Err:        err,
	}
}

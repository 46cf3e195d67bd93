package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/seenimoa/coinconvert/internal/cmc"
)

// ErrMissingIdentifier is returned by GetPrice when neither ids nor symbol is
// given. No upstream call is made.
var ErrMissingIdentifier = errors.New(`query parameter "ids" or "symbol" is required`)

// UpstreamError reports a failed upstream call.
type UpstreamError struct {
	Op  string // "list coins" or "get price"
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Details is the client-facing failure detail: the upstream response body when
// there was one, the error message otherwise.
func (e *UpstreamError) Details() any {
	var apiErr *cmc.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.Details()
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "upstream request timed out"
	}
	return e.Err.Error()
}

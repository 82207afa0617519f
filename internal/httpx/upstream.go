package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError carries the status and body of a failed call to another
// service so the caller can relay them verbatim instead of leaking its
// own internals.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// RelayUpstream writes the upstream's status and body back to the client
// when err wraps an UpstreamError. Returns false when err is something else.
func RelayUpstream(w http.ResponseWriter, err error) bool {
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	RespondError(w, ue.StatusCode, ue.Body)
	return true
}

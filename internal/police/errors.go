package police

import (
	"errors"
	"fmt"

	"courtbridge/pkg/platform/sentinel"
)

// UpstreamStatusError reports a non-2xx upstream response. The registry is
// known to answer failures with an unstructured stack trace instead of a
// structured error body, so only the status code is carried.
type UpstreamStatusError struct {
	Operation  string
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Operation, e.StatusCode)
}

// Condition classifies an upstream failure.
type Condition int

const (
	// ConditionUnavailable: the availability flag gated the call or the
	// dependency is flagged down.
	ConditionUnavailable Condition = iota
	// ConditionUpstreamStatus: upstream answered with a non-2xx status.
	ConditionUpstreamStatus
	// ConditionValidation: upstream answered 2xx with a payload failing the
	// listing schema.
	ConditionValidation
	// ConditionInternal: anything else (network failure, decode failure).
	ConditionInternal
)

// Classify buckets an error into the failure taxonomy.
func Classify(err error) Condition {
	var statusErr *UpstreamStatusError
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return ConditionUnavailable
	case errors.As(err, &statusErr):
		return ConditionUpstreamStatus
	case errors.Is(err, sentinel.ErrValidation):
		return ConditionValidation
	default:
		return ConditionInternal
	}
}

// Disposition is the declared outcome for one failure condition: the error
// signaled to the caller and whether an audit event is emitted first.
type Disposition struct {
	Err   error
	Audit bool
}

// readPolicy governs the data-reading paths (document listing, case info,
// document content). An unreachable upstream and a nonexistent case are
// indistinguishable here, and both mean "nothing to show".
var readPolicy = map[Condition]Disposition{
	ConditionUnavailable:    {Err: sentinel.ErrNotFound},
	ConditionUpstreamStatus: {Err: sentinel.ErrNotFound},
	ConditionValidation:     {Err: sentinel.ErrBadGateway, Audit: true},
	ConditionInternal:       {Err: sentinel.ErrBadGateway, Audit: true},
}

// dispositionFor resolves a failure against the read policy. A NotFound that
// re-enters passes through unchanged rather than being re-wrapped.
func dispositionFor(err error) Disposition {
	if errors.Is(err, sentinel.ErrNotFound) {
		return Disposition{Err: err}
	}
	return readPolicy[Classify(err)]
}

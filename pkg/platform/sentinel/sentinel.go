package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Transport and gateway layers return
// these (optionally wrapped) so callers can translate them into domain outcomes.
//
// These represent factual states about the upstream registry, not validation
// failures of caller input:
// - ErrNotFound: the case, file, or record does not exist upstream (or is
//   indistinguishable from not existing)
// - ErrUnavailable: the upstream dependency is flagged down or unreachable
// - ErrBadGateway: the upstream failed in an unexpected way; always audited
// - ErrValidation: the upstream answered 2xx with a payload that fails the
//   listing schema contract
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrBadGateway  = errors.New("bad gateway")
	ErrValidation  = errors.New("invalid upstream payload")
)

package audit

import "time"

// Event is emitted from gateway logic when an upstream failure is escalated.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	// Action names the operation that failed, one of the Action* constants.
	Action string
	// CaseID and ActorID carry the case and the national identity of the user
	// whose request triggered the upstream call.
	CaseID  string
	ActorID string
	// Institution is the court the acting user belongs to.
	Institution string
	// FileID and FileName are set for document-content failures only.
	FileID   string
	FileName string
	// Reason carries the underlying error text.
	Reason string
}

// Actions recorded against the audit trail.
const (
	ActionListCaseFiles  = "police_list_case_files_failed"
	ActionGetCaseInfo    = "police_get_case_info_failed"
	ActionUploadFile     = "police_upload_file_failed"
	ActionPublishOutcome = "police_publish_outcome_failed"
)

package police

import "time"

// CaseType is the case-management classification of a case. The gateway only
// cares whether a case is an indictment case, which decides the storage
// bucket segment and whether a custody notice document accompanies the
// outcome push.
type CaseType string

const (
	CaseTypeIndictment CaseType = "INDICTMENT"
	CaseTypeCustody    CaseType = "CUSTODY"
	CaseTypeTravelBan  CaseType = "TRAVEL_BAN"
	CaseTypeOther      CaseType = "OTHER"
)

func (t CaseType) IsIndictment() bool {
	return t == CaseTypeIndictment
}

// CaseFileDescriptor is the normalized view of one document held by the
// police registry for a case. Name always ends in ".pdf".
type CaseFileDescriptor struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	PoliceCaseNumber string `json:"policeCaseNumber"`
	// Chapter is derived from the leading integer of the upstream category
	// string, minus one. Nil when the category has no valid leading integer.
	Chapter     *int   `json:"chapter,omitempty"`
	DisplayDate string `json:"displayDate,omitempty"`
}

// CaseInfoRecord describes one originating police case. At most one record
// exists per distinct police case number.
type CaseInfoRecord struct {
	PoliceCaseNumber string     `json:"policeCaseNumber"`
	Place            string     `json:"place,omitempty"`
	Date             *time.Time `json:"date,omitempty"`
}

// UploadRequest asks the gateway to pull one document from the registry and
// persist it. Caller-supplied and immutable.
type UploadRequest struct {
	CaseID   string
	FileID   string
	FileName string
	CaseType CaseType
}

// UploadResult reports where a fetched document landed and how large it was.
type UploadResult struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
}

// Actor identifies the user whose request triggered an upstream call,
// carried into audit events on escalated failures.
type Actor struct {
	NationalID  string
	Institution string
}

// Upstream document-type codes for the outcome push.
const (
	docTypeRequest       = "RVKR"
	docTypeCourtRecord   = "RVTB"
	docTypeRuling        = "RVUR"
	docTypeCustodyNotice = "RVVI"
)

// Storage bucket segments by case class.
const (
	bucketSegmentIndictments = "indictments"
	bucketSegmentUploads     = "uploads"
)

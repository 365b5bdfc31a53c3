package police

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"courtbridge/pkg/platform/sentinel"
)

// Upstream DTOs for the document-listing endpoint. Field names follow the
// registry's wire format.
type documentListPayload struct {
	CaseNumber string          `json:"malsnumer" validate:"required"`
	Documents  []documentEntry `json:"skjol" validate:"omitempty,dive"`
	CaseUnits  []caseUnitEntry `json:"malseinings" validate:"omitempty,dive"`
}

type documentEntry struct {
	ID         int    `json:"rvMalSkjolMals_ID" validate:"required,gt=0"`
	Name       string `json:"heitiSkjals" validate:"required"`
	CaseNumber string `json:"malsnumer" validate:"required"`
	Category   string `json:"domsSkjalsFlokkun"`
	Created    string `json:"dagsStofnad"`
}

type caseUnitEntry struct {
	OriginalCaseNumber string `json:"upprunalegtMalsnumer" validate:"required"`
	Place              string `json:"vettvangur"`
	OffenseDate        string `json:"brotFra"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// parseDocumentList destructures and validates a 2xx listing body. Malformed
// payloads are rejected before they reach business logic.
func parseDocumentList(body []byte) (*documentListPayload, error) {
	var payload documentListPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode listing: %v", sentinel.ErrValidation, err)
	}
	if err := validate.Struct(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrValidation, err)
	}
	return &payload, nil
}

// chapterFromCategory derives the chapter index from a category string of the
// form "<n>.<rest>" with integer n >= 1, returning n-1. Anything else yields
// nil.
func chapterFromCategory(category string) *int {
	head, _, found := strings.Cut(category, ".")
	if !found {
		return nil
	}
	n, err := strconv.Atoi(head)
	if err != nil || n < 1 {
		return nil
	}
	chapter := n - 1
	return &chapter
}

// ensurePDFSuffix appends ".pdf" to names that do not already carry it.
func ensurePDFSuffix(name string) string {
	if strings.HasSuffix(name, ".pdf") {
		return name
	}
	return name + ".pdf"
}

// upstreamTimeLayouts covers the formats the registry has been seen to emit.
var upstreamTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseUpstreamTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range upstreamTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

package police

import (
	"fmt"
	"strings"
)

// BuildPath composes the X-Road endpoint base for a counterpart service:
// {basePath}/r1/{memberClass}/{memberCode}/{apiPath}. Pure string work; the
// constructor validates the inputs so malformed configuration fails at
// startup rather than on the first call.
func BuildPath(basePath, memberClass, memberCode, apiPath string) string {
	return fmt.Sprintf("%s/r1/%s/%s/%s",
		strings.TrimRight(basePath, "/"),
		strings.Trim(memberClass, "/"),
		strings.Trim(memberCode, "/"),
		strings.Trim(apiPath, "/"),
	)
}

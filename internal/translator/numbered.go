package translator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/MimeLyc/videotools/internal/errs"
)

var numberedLine = regexp.MustCompile(`^[(\[]?(\d+)[)\]]?\.?\s*(.*)$`)

// ParseNumbered maps a numbered-list response to one text per non-empty line.
// Lines without a numeric prefix are kept verbatim unless strict is set, in
// which case every line must carry its 1-based position. A numbered line with
// nothing after the number is an error in both modes.
func ParseNumbered(response string, strict bool) ([]string, error) {
	var texts []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			if strict {
				return nil, errs.APIError("response line is not numbered").
					WithContext("line", line)
			}
			texts = append(texts, line)
			continue
		}

		if strict {
			if n, err := strconv.Atoi(m[1]); err != nil || n != len(texts)+1 {
				return nil, errs.APIError(fmt.Sprintf("response numbering out of order at position %d", len(texts)+1)).
					WithContext("line", line)
			}
		}
		if m[2] == "" {
			return nil, errs.APIError(fmt.Sprintf("response line %d has no text", len(texts)+1)).
				WithContext("line", line)
		}
		texts = append(texts, m[2])
	}
	return texts, nil
}

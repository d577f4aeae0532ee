package subtitle

import "regexp"

var (
	cjkPattern   = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
	latinPattern = regexp.MustCompile(`[a-zA-ZÀ-ỹ]+`)
)

// CountWords counts CJK ideographs individually and latin (including
// Vietnamese) words as runs of letters.
func CountWords(text string) int {
	return len(cjkPattern.FindAllStringIndex(text, -1)) +
		len(latinPattern.FindAllStringIndex(text, -1))
}

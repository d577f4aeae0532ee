package httpapi

import (
	"path/filepath"
	"strings"
)

// resolveWithin returns the absolute form of p when it lies inside one of
// roots. Symlinks are resolved on both sides before comparing, so a link
// inside a root cannot point the server somewhere else.
func resolveWithin(roots []string, p string) (string, bool) {
	if strings.TrimSpace(p) == "" {
		return "", false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	real := evalExisting(abs)

	for _, root := range roots {
		if root == "" {
			continue
		}
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(evalExisting(rootAbs), real)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return abs, true
		}
	}
	return "", false
}

// evalExisting resolves symlinks in the deepest existing ancestor of p and
// appends the part that does not exist yet.
func evalExisting(p string) string {
	rest := ""
	cur := p
	for {
		if real, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(real, rest)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

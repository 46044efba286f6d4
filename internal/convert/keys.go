package convert

import (
	"regexp"
	"strings"
)

// citeMacroPattern matches \cite, \citep, \citet, \citealp, ... with optional
// star and optional arguments; group 1 is the key list.
var citeMacroPattern = regexp.MustCompile(`\\cite[a-zA-Z]*\*?(?:\[[^\]]*\])*\{([^}]*)\}`)

// CitedKeys returns the bibliography keys cited in a LaTeX document, in
// first-use order without duplicates.
func CitedKeys(doc string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range citeMacroPattern.FindAllStringSubmatch(doc, -1) {
		for _, k := range strings.Split(m[1], ",") {
			k = strings.TrimSpace(k)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

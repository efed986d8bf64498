package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

var bracedVar = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv substitutes environment variables in a config document.
// ${VAR} must be set, $VAR expands to the empty string when unset and $$ is
// a literal dollar sign.
func expandEnv(doc string) (string, error) {
	const dollar = "\x00EVALOPS_DOLLAR\x00"
	doc = strings.ReplaceAll(doc, "$$", dollar)

	var missing []string
	for _, m := range bracedVar.FindAllStringSubmatch(doc, -1) {
		if _, ok := os.LookupEnv(m[1]); !ok && !slices.Contains(missing, m[1]) {
			missing = append(missing, m[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: missing environment variables: %s", ErrInvalid, strings.Join(missing, ", "))
	}
	return strings.ReplaceAll(os.ExpandEnv(doc), dollar, "$"), nil
}

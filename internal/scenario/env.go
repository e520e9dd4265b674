package scenario

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// expandEnv replaces ${VAR} and ${VAR:-default}. In strict mode an unset
// variable without a default is an error; otherwise it expands to "".
func expandEnv(input string, strict bool) (string, error) {
	var missing []string
	out := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		inner := match[2 : len(match)-1]
		name, def, hasDefault := strings.Cut(inner, ":-")
		value, ok := os.LookupEnv(name)
		switch {
		case ok && value != "":
			return value
		case hasDefault:
			return def
		case !ok && strict:
			missing = append(missing, name)
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingEnvVar, strings.Join(missing, ", "))
	}
	return out, nil
}

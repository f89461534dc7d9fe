// Package config loads strata.yaml, the defaults file of the strata commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// envRef matches ${NAME}, ${NAME:-fallback} and ${NAME:?message}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:[-?])([^}]*))?\}`)

// ErrMissingEnv is returned for a ${NAME:?message} reference whose variable
// is unset or empty.
var ErrMissingEnv = errors.New("required environment variable not set")

// ExpandEnv substitutes environment references in a config document.
//
// ${NAME} becomes the variable's value, or nothing when it is unset.
// ${NAME:-fallback} uses fallback when the variable is unset or empty.
// ${NAME:?message} is an error naming every such variable that is unset or
// empty, so that a storage bucket or webhook token cannot silently expand to
// nothing.
func ExpandEnv(input string) (string, error) {
	var missing []string
	out := envRef.ReplaceAllStringFunc(input, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		name, op, arg := m[1], m[2], m[3]
		if v := os.Getenv(name); v != "" {
			return v
		}
		switch op {
		case ":-":
			return arg
		case ":?":
			if arg == "" {
				arg = "not set"
			}
			missing = append(missing, fmt.Sprintf("%s (%s)", name, arg))
		}
		return ""
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return out, nil
}

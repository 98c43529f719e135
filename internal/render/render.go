// Package render substitutes {{ name }} placeholders in SMS template bodies.
package render

import (
	"fmt"
	"regexp"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

var placeholder = regexp.MustCompile(`{{\s*([\w.-]+)\s*}}`)

// MissingVariableError names a placeholder that had no entry in the variables.
type MissingVariableError struct {
	Key string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing variable: %s", e.Key)
}

func (e *MissingVariableError) Is(target error) bool {
	return target == model.ErrMissingVariable
}

// Render replaces every placeholder in body with its value from vars. Each
// referenced key must be present in vars; empty values are allowed.
func Render(body string, vars map[string]string) (string, error) {
	var missing *MissingVariableError

	out := placeholder.ReplaceAllStringFunc(body, func(match string) string {
		if missing != nil {
			return match
		}
		key := placeholder.FindStringSubmatch(match)[1]
		val, ok := vars[key]
		if !ok {
			missing = &MissingVariableError{Key: key}
			return match
		}
		return val
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}

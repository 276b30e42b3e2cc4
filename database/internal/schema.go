package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Column is one expected or observed table column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// CheckColumns compares the observed columns of table against want.
// Types are compared case-insensitively. Extra columns are allowed.
func CheckColumns(table string, want []Column, got map[string]Column) error {
	var missing []string
	var problems []error

	for _, w := range want {
		g, ok := got[w.Name]
		if !ok {
			missing = append(missing, w.Name)
			continue
		}
		if !strings.EqualFold(g.Type, w.Type) {
			problems = append(problems, fmt.Errorf("%s: expected %s, got %s", w.Name, w.Type, strings.ToLower(g.Type)))
		}
		if g.Nullable != w.Nullable {
			problems = append(problems, fmt.Errorf("%s: expected nullable=%v, got nullable=%v", w.Name, w.Nullable, g.Nullable))
		}
	}

	if len(missing) > 0 {
		problems = append([]error{fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))}, problems...)
	}
	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("table %s does not match the expected schema: %w", table, errors.Join(problems...))
}

package contract

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/loadcompare/schema"
)

// Color variables for console output.
var (
	ImprovedColor  = color.New(color.FgGreen, color.Bold) // ImprovedColor marks B beating A.
	RegressedColor = color.New(color.FgRed, color.Bold)   // RegressedColor marks B losing to A.
	UnchangedColor = color.New(color.FgYellow)            // UnchangedColor marks no difference.
)

// identifierPattern is the only shape allowed for interpolated SQL identifiers.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidIdentifier reports whether name is safe to interpolate as a SQL identifier.
func IsValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// GetColorLabel returns a colored verdict label for console output (table).
func GetColorLabel(v schema.Verdict) string {
	text := string(v)
	switch v {
	case schema.ImprovedVerdict:
		return ImprovedColor.Sprint(text)
	case schema.RegressedVerdict:
		return RegressedColor.Sprint(text)
	default:
		return UnchangedColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// TruncateLabel truncates a label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 to leave room for the ellipsis and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseParameterAssignments parses "parameter_1=100" style assignments into a filter map.
// An empty value or "any" leaves the parameter unconstrained.
func ParseParameterAssignments(assignments []string) (map[string]*float64, error) {
	params := make(map[string]*float64)
	for _, a := range assignments {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid parameter '%s', expected 'parameter_N=value'", a)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !schema.IsParameterKey(key) {
			return nil, fmt.Errorf("invalid parameter key '%s', must be one of %s", key, strings.Join(schema.ParameterKeys, ", "))
		}
		if value == "" || strings.EqualFold(value, "any") {
			params[key] = nil
			continue
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid value '%s' for %s: must be a finite number", value, key)
		}
		params[key] = &v
	}
	return params, nil
}

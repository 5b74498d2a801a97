package stack

import "regexp"

// =============================================================================
// Variable Substitution Functions
// =============================================================================

// varPlaceholderRegex matches ${VAR} and ${VAR:-default} patterns.
// Groups:
//   - Group 1: Variable name (required)
//   - Group 2: ":-default" suffix if present (optional)
var varPlaceholderRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// SubstituteVariables replaces ${VAR} and ${VAR:-default} placeholders with
// values from the variables map.
//
// Behavior:
//   - ${VAR} - replaced with variables["VAR"] if set, otherwise kept as-is
//   - ${VAR:-default} - replaced with variables["VAR"] if set, otherwise "default"
//   - Unmatched text is left unchanged
//
// Examples:
//
//	SubstituteVariables("${MODEL_PATH}", map[string]string{"MODEL_PATH": "/models"})
//	// Returns: "/models"
//
//	SubstituteVariables("${MAX_WORKERS:-4}", map[string]string{})
//	// Returns: "4"
//
//	SubstituteVariables("${MISSING}", map[string]string{})
//	// Returns: "${MISSING}"
func SubstituteVariables(value string, variables map[string]string) string {
	return varPlaceholderRegex.ReplaceAllStringFunc(value, func(match string) string {
		submatch := varPlaceholderRegex.FindStringSubmatch(match)
		varName := submatch[1]
		if val, ok := variables[varName]; ok {
			return val
		}
		if submatch[2] != "" {
			// Strip the ":-" marker; an empty default is a valid default
			return submatch[2][2:]
		}
		return match
	})
}

// ExtractVariables extracts variable placeholder names from raw manifest
// content, before interpolation. Returns unique names in order of first
// appearance.
func ExtractVariables(yamlContent string) []string {
	seen := make(map[string]bool)
	var vars []string

	for _, match := range varPlaceholderRegex.FindAllStringSubmatch(yamlContent, -1) {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}

	return vars
}

package menu

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

// ValidateOptions injects the filesystem probe used for key-path checks.
// The zero value uses os.Stat.
type ValidateOptions struct {
	Stat func(string) (os.FileInfo, error)
}

// ValidateConfig checks the raw inventory document and returns every
// violation found; an empty result means the document is valid. The
// messages are operator-facing and printed verbatim by the CLI, so their
// wording and order are stable.
//
// The three root checks short-circuit; everything below them is
// collected so the operator sees the whole repair list at once.
func ValidateConfig(raw any, opts ValidateOptions) []string {
	stat := opts.Stat
	if stat == nil {
		stat = os.Stat
	}

	root, ok := raw.(map[string]any)
	if !ok {
		return []string{"Config must be a JSON object"}
	}
	rawNetworks, ok := root["networks"]
	if !ok {
		return []string{"Missing 'networks' key in config"}
	}
	networks, ok := rawNetworks.([]any)
	if !ok {
		return []string{"'networks' must be an array"}
	}

	var findings []string
	for i, rn := range networks {
		// A non-map entry reads as a map with no keys: both required
		// fields get reported and the servers walk is skipped.
		nm, _ := rn.(map[string]any)

		for _, field := range []string{"name", "servers"} {
			if _, ok := nm[field]; !ok {
				findings = append(findings, fmt.Sprintf("Network [%d]: Missing required field '%s'", i, field))
			}
		}

		rawServers, ok := nm["servers"]
		if !ok {
			continue
		}
		servers, ok := rawServers.([]any)
		if !ok {
			findings = append(findings, fmt.Sprintf("Network [%d]: 'servers' must be an array", i))
			continue
		}

		for j, rs := range servers {
			sm, _ := rs.(map[string]any)
			findings = append(findings, validateServer(sm, i, j, stat)...)
		}
	}
	return findings
}

func validateServer(sm map[string]any, i, j int, stat func(string) (os.FileInfo, error)) []string {
	var findings []string

	if _, ok := sm["ip"]; !ok {
		findings = append(findings, fmt.Sprintf("Network [%d] Server [%d]: Missing required field 'ip'", i, j))
	}

	_, hasUsername := sm["username"]
	_, hasUsers := sm["users"]
	if !hasUsername && !hasUsers {
		findings = append(findings, fmt.Sprintf("Network [%d] Server [%d]: Must have either 'username' or 'users' field", i, j))
	} else if hasUsername && hasUsers {
		findings = append(findings, fmt.Sprintf("Network [%d] Server [%d]: Cannot have both 'username' and 'users' fields", i, j))
	}

	if hasUsers {
		users, ok := sm["users"].([]any)
		switch {
		case !ok:
			findings = append(findings, fmt.Sprintf("Network [%d] Server [%d]: 'users' must be an array", i, j))
		case len(users) == 0:
			findings = append(findings, fmt.Sprintf("Network [%d] Server [%d]: 'users' array cannot be empty", i, j))
		default:
			for k, ru := range users {
				um, _ := ru.(map[string]any)
				if _, ok := um["username"]; !ok {
					findings = append(findings, fmt.Sprintf("Network [%d] Server [%d] User [%d]: Missing required field 'username'", i, j, k))
				}
				if kp := stringField(um, "key_path"); kp != "" {
					if _, err := stat(expandPath(kp)); err != nil {
						findings = append(findings, fmt.Sprintf("Network [%d] Server [%d] User [%d]: SSH key not found at '%s'", i, j, k, kp))
					}
				}
			}
		}
	}

	if v, ok := sm["port"]; ok && v != nil {
		if p, isInt := intValue(v); !isInt || p < 1 || p > 65535 {
			findings = append(findings, fmt.Sprintf("Network [%d] Server [%d]: Invalid port '%s' (must be 1-65535)", i, j, formatRawValue(v)))
		}
	}

	// The single-user key check runs whenever username is present, even
	// alongside a both-forms violation, and always after the port check.
	if hasUsername {
		if kp := stringField(sm, "key_path"); kp != "" {
			if _, err := stat(expandPath(kp)); err != nil {
				findings = append(findings, fmt.Sprintf("Network [%d] Server [%d]: SSH key not found at '%s'", i, j, kp))
			}
		}
	}

	return findings
}

// intValue reports v as an integer when the decoder produced one.
// encoding/json yields float64 for every number, so whole floats count;
// yaml.v3 yields int (int64/uint64 for values that overflow int).
func intValue(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		if x > math.MaxInt {
			return 0, false
		}
		return int(x), true
	case float64:
		if !math.IsInf(x, 0) && x == math.Trunc(x) {
			return int(x), true
		}
	}
	return 0, false
}

// formatRawValue renders a raw document value for an error message.
// Floats avoid %v's exponent form so large out-of-range ports read the
// way the operator wrote them.
func formatRawValue(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

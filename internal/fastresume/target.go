package fastresume

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TargetOS selects the path separator convention written into records.
type TargetOS int

const (
	// TargetNone leaves separators untouched.
	TargetNone TargetOS = iota
	TargetWindows
	TargetPOSIX
)

// ParseTargetOS maps user input to a TargetOS. Matching is case-insensitive;
// "linux", "mac", and "posix" all select TargetPOSIX. An empty string yields
// TargetNone.
func ParseTargetOS(value string) (TargetOS, error) {
	switch cases.Fold().String(strings.TrimSpace(value)) {
	case "":
		return TargetNone, nil
	case "windows", "win":
		return TargetWindows, nil
	case "linux", "mac", "macos", "posix":
		return TargetPOSIX, nil
	default:
		return TargetNone, fmt.Errorf("%w: %q (want Windows, Linux, or Mac)", ErrInvalidTarget, value)
	}
}

func (t TargetOS) String() string {
	switch t {
	case TargetNone:
		return ""
	case TargetWindows:
		return "windows"
	case TargetPOSIX:
		return "posix"
	default:
		return fmt.Sprintf("TargetOS(%d)", int(t))
	}
}

// DisplayName returns a human label such as "Windows" or "Linux/Mac".
func (t TargetOS) DisplayName() string {
	switch t {
	case TargetWindows:
		return cases.Title(language.English).String(t.String())
	case TargetPOSIX:
		return "Linux/Mac"
	case TargetNone:
		return "unchanged"
	default:
		return t.String()
	}
}

// ConvertSlashes rewrites separators for target. Windows turns every '/' into
// '\'; POSIX turns every '\' into '/'. No other normalization happens.
func ConvertSlashes(path string, target TargetOS) (string, error) {
	switch target {
	case TargetWindows:
		return strings.ReplaceAll(path, "/", `\`), nil
	case TargetPOSIX:
		return strings.ReplaceAll(path, `\`, "/"), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidTarget, target)
	}
}

// DetectTargetOS infers a conversion from the separators used in the existing
// and new paths: POSIX to Windows style selects TargetWindows, the reverse
// selects TargetPOSIX, anything else TargetNone.
func DetectTargetOS(existing, replacement string) TargetOS {
	switch {
	case strings.Contains(existing, "/") && strings.Contains(replacement, `\`):
		return TargetWindows
	case strings.Contains(existing, `\`) && strings.Contains(replacement, "/"):
		return TargetPOSIX
	default:
		return TargetNone
	}
}

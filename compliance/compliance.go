package compliance

import "fmt"

// Mode selects how the rollup treats input it cannot interpret.
//
// Strict prefers explicit failure over silent acceptance. Permissive skips
// the input and logs it, so older builds keep materializing newer streams.
type Mode int

const (
	Permissive Mode = iota
	Strict
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	default:
		return "permissive"
	}
}

// ParseMode is the inverse of Mode.String. An empty string selects Permissive.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return Permissive, fmt.Errorf("unknown compliance mode %q", s)
	}
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

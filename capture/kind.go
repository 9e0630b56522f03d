package capture

import "fmt"

// Kind selects which frame is recorded.
type Kind int

const (
	// KindSquare records the warped square frame.
	KindSquare Kind = iota
	// KindMaster records the wide dome master frame.
	KindMaster
	// KindEquirect records the equirectangular skybox panorama.
	KindEquirect
)

func (k Kind) String() string {
	switch k {
	case KindSquare:
		return "square"
	case KindMaster:
		return "master"
	case KindEquirect:
		return "equirect"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Bitrate returns the target video bitrate in bits per second.
func (k Kind) Bitrate() int {
	if k == KindMaster || k == KindEquirect {
		return 25_000_000
	}
	return 10_000_000
}

// Basename returns the export file name without extension.
func (k Kind) Basename() string {
	return "horizon_" + k.String() + "_loop"
}

// ParseKind accepts "square", "master" or "equirect".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "square":
		return KindSquare, nil
	case "master":
		return KindMaster, nil
	case "equirect":
		return KindEquirect, nil
	}
	return 0, fmt.Errorf("capture: unknown kind %q", s)
}

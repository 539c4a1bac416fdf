package hardware

// Profile is a platform power profile as exposed by asusd.
// The zero value is Balanced.
type Profile int

const (
	Balanced Profile = iota
	Performance
	Quiet
)

// ProfileFromWire decodes a wire code into a Profile.
// asusd 6.x: 0=Balanced, 1=Performance, 3=Quiet(LowPower). The mapping is
// total: codes the daemon may grow in later versions decode to Balanced.
func ProfileFromWire(code uint32) Profile {
	switch code {
	case 0:
		return Balanced
	case 1:
		return Performance
	case 3:
		return Quiet
	default:
		return Balanced
	}
}

// Wire encodes the profile as the daemon's wire code.
func (p Profile) Wire() uint32 {
	switch p {
	case Performance:
		return 1
	case Quiet:
		return 3
	default:
		return 0
	}
}

// CycleNext returns the next profile in the Quiet, Balanced, Performance rotation.
func (p Profile) CycleNext() Profile {
	switch p {
	case Quiet:
		return Balanced
	case Balanced:
		return Performance
	default:
		return Quiet
	}
}

func (p Profile) String() string {
	switch p {
	case Performance:
		return "Performance"
	case Quiet:
		return "Quiet"
	default:
		return "Balanced"
	}
}

// ParseProfile maps a case-sensitive profile name to its Profile value.
func ParseProfile(name string) (Profile, bool) {
	switch name {
	case "Quiet", "quiet":
		return Quiet, true
	case "Balanced", "balanced":
		return Balanced, true
	case "Performance", "performance":
		return Performance, true
	default:
		return Balanced, false
	}
}

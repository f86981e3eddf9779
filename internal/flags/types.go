package flags

import (
	"maps"
)

// Name identifies a feature flag.
type Name string

// Built-in catalogue.
const (
	RMPRatings Name = "rmp_ratings"
	ICSExport  Name = "ics_export"
	MultiTerm  Name = "multi_term"
)

// DefaultCatalogue is checked when no catalogue is configured.
var DefaultCatalogue = []Name{RMPRatings, ICSExport, MultiTerm}

// State maps every catalogue flag to its value. A flag whose check failed is
// false, never missing.
type State map[Name]bool

// Clone returns a copy; nil stays nil.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// CheckResult is the outcome of checking one flag.
type CheckResult struct {
	Name    Name
	Enabled bool
	Err     error
}

// LoadState is the cache's lifecycle state.
type LoadState int

const (
	Empty LoadState = iota
	Loading
	Ready
)

func (s LoadState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

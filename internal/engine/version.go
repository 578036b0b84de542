package engine

import (
	"fmt"

	"dissect/internal/disasm"
)

// Engine API version. Consumers built against a different major version
// must not use this engine.
const (
	Major = 5
	Minor = 0
)

// Queries for Support besides plain architectures.
const (
	SupportAll  = 0xFFFF
	SupportDiet = SupportAll + 1
)

// Version returns the engine API version.
func Version() (major, minor int) { return Major, Minor }

// CheckVersion fails with disasm.ErrVersion when a consumer expects a
// different major version.
func CheckVersion(major, minor int) error {
	if major != Major {
		return fmt.Errorf("engine %d.%d, consumer built for %d.%d: %w", Major, Minor, major, minor, disasm.ErrVersion)
	}
	return nil
}

// SupportsReducedBuild reports whether this binary was built as a diet
// engine.
func SupportsReducedBuild() bool { return reducedBuild }

// Support answers capability queries: an architecture value, SupportAll
// or SupportDiet.
func Support(query int) bool {
	switch query {
	case SupportAll:
		for _, a := range disasm.Archs() {
			if _, ok := decoders[a]; !ok {
				return false
			}
		}
		return true
	case SupportDiet:
		return reducedBuild
	}
	_, ok := decoders[disasm.Arch(query)]
	return ok
}

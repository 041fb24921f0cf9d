package resolver

import "fmt"

// Reason is one link in the chain explaining why a package ended up at
// its chosen version: either a direct user request, a dependency pulled
// in by some other package already in the solution, or an automatic
// removal.
type Reason struct {
	Package    string
	Version    string // "" for a removal
	BecauseOf  string // package name that pulled this one in, "" for user requests/removals
	Expression string // the relation expression responsible, "" for user requests/removals
}

func (r Reason) String() string {
	switch {
	case r.Version == "":
		return fmt.Sprintf("%s removed automatically", r.Package)
	case r.BecauseOf == "":
		return fmt.Sprintf("%s %s requested by user", r.Package, r.Version)
	default:
		return fmt.Sprintf("%s depends on %s %s via %q", r.BecauseOf, r.Package, r.Version, r.Expression)
	}
}

// ReasonChain is an ordered list of Reasons, root first, explaining why a
// package is present in a final Solution. Reasons are recorded for every
// decision; no configuration switches this off.
type ReasonChain []Reason

// String renders the chain root-first, one reason per line, for a "why"
// display.
func (rc ReasonChain) String() string {
	s := ""
	for i, r := range rc {
		if i > 0 {
			s += "\n"
		}
		s += r.String()
	}
	return s
}

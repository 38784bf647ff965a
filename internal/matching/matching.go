// Package matching resolves free-text product codes and supplier names against catalog
// snapshots loaded for a single request.
package matching

import (
	"sort"

	"github.com/google/uuid"
)

// Kind is the outcome of one resolution.
type Kind int

const (
	Missing Kind = iota
	Matched
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Ambiguous:
		return "ambiguous"
	default:
		return "missing"
	}
}

// Candidate is a catalog entry offered to the caller.
type Candidate struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code,omitempty"`
	Name string    `json:"name"`
}

// Result is a resolution outcome. Match is set only for Matched; Candidates only for
// Ambiguous.
type Result struct {
	Kind       Kind
	Match      Candidate
	Candidates []Candidate
}

// Resolved reports whether exactly one entity was found.
func (r Result) Resolved() bool {
	return r.Kind == Matched
}

func matched(c Candidate) Result {
	return Result{Kind: Matched, Match: c}
}

func ambiguous(cs []Candidate) Result {
	out := append([]Candidate(nil), cs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return Result{Kind: Ambiguous, Candidates: out}
}

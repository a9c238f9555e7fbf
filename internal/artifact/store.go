package artifact

import (
	"errors"
	"fmt"
)

// ErrDuplicateArtifact is returned when two artifacts claim the same
// (target, kind) slot in the aggregated store.
var ErrDuplicateArtifact = errors.New("duplicate artifact")

// Store is the unified, target-keyed artifact layout built once after every
// required job reaches a terminal state. It is read-only after construction;
// no mutating methods are exported.
type Store struct {
	byTarget map[string][]Artifact
	order    []string
}

// NewStore builds a Store from the given artifacts, rejecting duplicate
// (target, kind) combinations. Target order follows first appearance.
func NewStore(artifacts []Artifact) (*Store, error) {
	s := &Store{byTarget: make(map[string][]Artifact)}
	seen := make(map[string]struct{}, len(artifacts))

	for _, a := range artifacts {
		slot := a.TargetID + "/" + string(a.Kind)
		if _, dup := seen[slot]; dup {
			return nil, fmt.Errorf("%w: %s already holds a %s artifact", ErrDuplicateArtifact, a.TargetID, a.Kind)
		}
		seen[slot] = struct{}{}

		if _, known := s.byTarget[a.TargetID]; !known {
			s.order = append(s.order, a.TargetID)
		}
		s.byTarget[a.TargetID] = append(s.byTarget[a.TargetID], a)
	}
	return s, nil
}

// Targets returns the target ids present in the store, in first-appearance order.
func (s *Store) Targets() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// ByTarget returns a copy of the artifacts owned by the given target.
func (s *Store) ByTarget(targetID string) []Artifact {
	arts := s.byTarget[targetID]
	out := make([]Artifact, len(arts))
	copy(out, arts)
	return out
}

// Find returns the artifact for an exact (target, kind) slot, if present.
func (s *Store) Find(targetID string, kind Kind) (Artifact, bool) {
	for _, a := range s.byTarget[targetID] {
		if a.Kind == kind {
			return a, true
		}
	}
	return Artifact{}, false
}

// Len returns the total number of artifacts in the store.
func (s *Store) Len() int {
	n := 0
	for _, arts := range s.byTarget {
		n += len(arts)
	}
	return n
}

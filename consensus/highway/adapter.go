// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package highway

// Item is the payload the synchronizer delivers: either a vote or a piece
// of equivocation evidence, tagged by which field is set. Exactly one of
// Vote or Evidence is non-nil for any well-formed Item.
type Item struct {
	Vote     *SignedWireVote
	Evidence *Evidence
}

// VoteItem wraps a vote as a synchronizer Item.
func VoteItem(swv SignedWireVote) Item {
	return Item{Vote: &swv}
}

// EvidenceItem wraps evidence as a synchronizer Item.
func EvidenceItem(e Evidence) Item {
	return Item{Evidence: &e}
}

// DepSpec tracks the outstanding dependencies of one not-yet-admitted
// Item, in first-encountered order. Grounded on pothole.rs's
// PotholeDepSpec, re-expressed over this package's Dependency type instead
// of a block index.
type DepSpec struct {
	toRequest []Dependency
	requested map[Dependency]struct{}
}

// NewDepSpec builds a DepSpec naming every dependency in deps as
// outstanding.
func NewDepSpec(deps []Dependency) *DepSpec {
	return &DepSpec{
		toRequest: append([]Dependency(nil), deps...),
		requested: make(map[Dependency]struct{}),
	}
}

// NextDependency pops and returns the next dependency to request, if any
// remain unrequested.
func (d *DepSpec) NextDependency() (Dependency, bool) {
	if len(d.toRequest) == 0 {
		return Dependency{}, false
	}
	next := d.toRequest[0]
	d.toRequest = d.toRequest[1:]
	d.requested[next] = struct{}{}
	return next, true
}

// ResolveDependency marks dep as resolved, whether or not it had already
// been requested. Returns true iff dep was actually outstanding.
func (d *DepSpec) ResolveDependency(dep Dependency) bool {
	for i, v := range d.toRequest {
		if v == dep {
			d.toRequest = append(d.toRequest[:i], d.toRequest[i+1:]...)
			return true
		}
	}
	if _, ok := d.requested[dep]; ok {
		delete(d.requested, dep)
		return true
	}
	return false
}

// AllResolved reports whether every dependency named at construction has
// since been resolved.
func (d *DepSpec) AllResolved() bool {
	return len(d.toRequest) == 0 && len(d.requested) == 0
}

// GetDependency implements synchronizer.ProtocolState: it serves a
// previously admitted vote or evidence back out by the Dependency that
// names it.
func (s *State) GetDependency(dep Dependency) (Item, bool) {
	switch dep.Kind {
	case DepVote:
		if swv, ok := s.WireVote(dep.Hash); ok {
			return VoteItem(swv), true
		}
	case DepEvidence:
		if e, ok := s.OptEvidence(dep.Index); ok {
			return EvidenceItem(*e), true
		}
	}
	return Item{}, false
}

// HandleNewItem implements synchronizer.ProtocolState: it tries to admit
// item, and on failure because of an unresolved panorama reference,
// reports every missing reference as a DepSpec for the synchronizer to
// chase down one at a time.
func (s *State) HandleNewItem(id Dependency, item Item) (bool, *DepSpec) {
	switch {
	case item.Vote != nil:
		if s.HasVote(id.Hash) {
			return true, nil
		}
		if _, err := s.AddVote(*item.Vote); err != nil {
			if deps := s.missingDependencies(item.Vote.Panorama); len(deps) > 0 {
				return false, NewDepSpec(deps)
			}
			// Rejected for a reason no dependency can fix (bad sequence
			// number, stale instant, unknown or equivocating sender):
			// there is nothing to request, so report it with an empty
			// spec rather than leaving the caller to guess why.
			return false, NewDepSpec(nil)
		}
		return true, nil
	case item.Evidence != nil:
		s.AddEvidence(item.Evidence)
		return true, nil
	default:
		return false, NewDepSpec(nil)
	}
}

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

import "github.com/ethereum/go-ethereum/common"

// ObservationKind discriminates the three states a panorama entry can be
// in. Go has no sum types, so Observation pairs this tag with a Hash field
// that is only meaningful when Kind is ObsCorrect.
type ObservationKind uint8

const (
	// ObsNone means the observer has not yet seen any vote from this
	// validator.
	ObsNone ObservationKind = iota
	// ObsCorrect means the latest vote seen from this validator, and
	// everything in its swimlane so far, is free of detected equivocation.
	ObsCorrect
	// ObsFaulty means evidence of equivocation by this validator is known.
	ObsFaulty
)

// Observation is one validator's entry in a Panorama: what the observer
// last saw that validator do.
type Observation struct {
	Kind ObservationKind
	Hash common.Hash // meaningful iff Kind == ObsCorrect
}

// NoneObservation returns the "nothing seen yet" observation.
func NoneObservation() Observation {
	return Observation{Kind: ObsNone}
}

// CorrectObservation returns an observation pointing at the validator's
// latest known-correct vote.
func CorrectObservation(hash common.Hash) Observation {
	return Observation{Kind: ObsCorrect, Hash: hash}
}

// FaultyObservation returns the "known to have equivocated" observation.
func FaultyObservation() Observation {
	return Observation{Kind: ObsFaulty}
}

// IsNone reports whether the observer has seen nothing from the validator.
func (o Observation) IsNone() bool { return o.Kind == ObsNone }

// IsCorrect reports whether o points at a specific known-correct vote.
func (o Observation) IsCorrect() bool { return o.Kind == ObsCorrect }

// IsFaulty reports whether o marks the validator as a known equivocator.
func (o Observation) IsFaulty() bool { return o.Kind == ObsFaulty }

// Correct returns the observed vote hash and true, iff o is ObsCorrect.
func (o Observation) Correct() (common.Hash, bool) {
	if o.Kind != ObsCorrect {
		return common.Hash{}, false
	}
	return o.Hash, true
}

// Panorama is an observer's view of the latest state of every validator,
// indexed by ValidatorIndex. It is a dense slice rather than a map so that
// both indexing and iteration stay O(1) and deterministic.
type Panorama []Observation

// NewPanorama returns a panorama of n validators, all unobserved.
func NewPanorama(n int) Panorama {
	return make(Panorama, n)
}

// Get returns the observation for idx.
func (p Panorama) Get(idx ValidatorIndex) Observation {
	return p[idx]
}

// IsEmpty reports whether no entry is ObsCorrect, i.e. this panorama
// points at no vote at all (every entry is ObsNone or ObsFaulty).
func (p Panorama) IsEmpty() bool {
	for _, obs := range p {
		if obs.IsCorrect() {
			return false
		}
	}
	return true
}

// Clone returns an independent copy, so mutating the result never aliases
// a State's internal panorama.
func (p Panorama) Clone() Panorama {
	return append(Panorama(nil), p...)
}

// Equal reports whether p and other hold identical observations.
func (p Panorama) Equal(other Panorama) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// EnumerateCorrect returns the (index, hash) pairs of every validator this
// panorama has a correct observation for, in ascending ValidatorIndex
// order. Ported from highway-core's Panorama::enumerate_correct; fork-choice
// tally construction (newTallies) relies on it.
func (p Panorama) EnumerateCorrect() []struct {
	Index ValidatorIndex
	Hash  common.Hash
} {
	var out []struct {
		Index ValidatorIndex
		Hash  common.Hash
	}
	for i, obs := range p {
		if hash, ok := obs.Correct(); ok {
			out = append(out, struct {
				Index ValidatorIndex
				Hash  common.Hash
			}{ValidatorIndex(i), hash})
		}
	}
	return out
}

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

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ValidatorIndex is a validator's position in the dense, ordered validator
// set. Panoramas and swimlanes are indexed by this, not by ValidatorID, so
// that they can be stored as plain slices.
type ValidatorIndex uint32

// ValidatorID identifies a validator to the outside world (e.g. for
// signature verification). It is a plain alias of common.Address rather
// than a distinct type, since this package never needs to distinguish a
// validator's account address from anyone else's.
type ValidatorID = common.Address

// Validators is the dense, ordered, immutable set of validators a State
// was constructed for. Order is significant: it is the order ValidatorIndex
// values are assigned in, and Panorama/swimlane slices are indexed
// positionally against it. Unlike a map, iterating it is deterministic.
type Validators struct {
	ids     []ValidatorID
	weights []Weight
	total   Weight
}

// NewValidators builds a validator set from parallel id/weight slices. The
// two slices must have equal length; ids[i] is assigned ValidatorIndex(i).
func NewValidators(ids []ValidatorID, weights []Weight) *Validators {
	if len(ids) != len(weights) {
		panic(fmt.Sprintf("highway: %d validator ids but %d weights", len(ids), len(weights)))
	}
	v := &Validators{
		ids:     append([]ValidatorID(nil), ids...),
		weights: append([]Weight(nil), weights...),
	}
	for _, w := range v.weights {
		v.total = v.total.Add(w)
	}
	return v
}

// Len returns the number of validators.
func (v *Validators) Len() int {
	return len(v.ids)
}

// ID returns the ValidatorID at idx. Panics if idx is out of range, since a
// well-formed panorama/vote can never reference an index the state wasn't
// constructed with.
func (v *Validators) ID(idx ValidatorIndex) ValidatorID {
	return v.ids[idx]
}

// Weight returns the voting power of the validator at idx.
func (v *Validators) Weight(idx ValidatorIndex) Weight {
	return v.weights[idx]
}

// TotalWeight returns the sum of all validators' weight.
func (v *Validators) TotalWeight() Weight {
	return v.total
}

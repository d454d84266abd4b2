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

// Weight is a validator's voting power, denominated in whatever unit the
// caller's validator-set bonding mechanism uses. Zero is a legal weight for
// a validator that has been fully unbonded but not yet removed from the
// validator set.
type Weight uint64

// Add returns w + other. Callers are responsible for avoiding overflow;
// total validator weight is expected to stay well within uint64 range for
// any realistic bonded set.
func (w Weight) Add(other Weight) Weight {
	return w + other
}

// Sub returns w - other, or zero if other exceeds w.
func (w Weight) Sub(other Weight) Weight {
	if other > w {
		return 0
	}
	return w - other
}

// IsGreaterThanHalf reports whether w strictly exceeds half of total.
func (w Weight) IsGreaterThanHalf(total Weight) bool {
	return uint64(w)*2 > uint64(total)
}

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
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
)

// Vote is the stored, validated form of a vote once it has been admitted
// into a State. Unlike WireVote it carries a skip list (SkipIdx) built at
// admission time, so later lookups can walk a sender's swimlane in
// O(log distance) instead of O(distance).
type Vote struct {
	Panorama  Panorama
	SeqNumber uint64
	Sender    ValidatorIndex
	Block     common.Hash
	SkipIdx   []common.Hash
	Instant   uint64
	Signature []byte
}

// Previous returns the hash of the sender's immediately preceding vote, if
// any. It is always SkipIdx[0] when SkipIdx is non-empty: level zero of the
// skip list is, by construction, the direct predecessor.
func (v *Vote) Previous() (common.Hash, bool) {
	if len(v.SkipIdx) == 0 {
		return common.Hash{}, false
	}
	return v.SkipIdx[0], true
}

// newVote constructs a Vote from an admitted SignedWireVote and the fork
// choice computed against its panorama. block is the hash the vote
// ultimately votes for: either a freshly created block (when the wire vote
// carries new Values) or forkChoice itself. Mirrors highway-core's
// Vote::new, including its skip list construction: level 0 is the sender's
// previous vote, and each subsequent level i+1 is level i's own level-i
// skip pointer, giving doubling jumps back through the sender's swimlane.
func newVote(swv SignedWireVote, block common.Hash, state *State) *Vote {
	v := &Vote{
		Panorama:  swv.Panorama.Clone(),
		SeqNumber: swv.SeqNumber,
		Sender:    swv.Sender,
		Block:     block,
		Instant:   swv.Instant,
		Signature: swv.Signature,
	}
	if prevHash, ok := swv.Panorama.Get(swv.Sender).Correct(); ok {
		v.SkipIdx = append(v.SkipIdx, prevHash)
		levels := bits.TrailingZeros64(swv.SeqNumber)
		for i := 0; i < levels; i++ {
			prevVote := state.Vote(v.SkipIdx[i])
			if i >= len(prevVote.SkipIdx) {
				break
			}
			v.SkipIdx = append(v.SkipIdx, prevVote.SkipIdx[i])
		}
	}
	return v
}

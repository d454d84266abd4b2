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

// Block is a point in the chain of ConsensusValues a validator set is
// trying to agree on. A Block is always introduced by exactly one vote —
// the one whose WireVote.Values was non-nil — and shares that vote's hash
// as its own identity in State.blocks, so looking a block up by hash and
// looking its introducing vote up by hash are the same lookup.
type Block struct {
	Parent  *common.Hash // nil iff this is the genesis block
	Height  uint64
	SkipIdx []common.Hash
	Values  [][]byte
}

// HasParent reports whether this is a non-genesis block.
func (b *Block) HasParent() bool {
	return b.Parent != nil
}

// newBlock constructs a Block whose parent is the block named by
// forkChoice. If forkChoice names no block this state holds (e.g. it is the
// zero hash because fork choice found nothing), the new block is a genesis
// block with no parent and height 0, whether or not the state already
// holds other blocks. Its skip list doubles back through ancestor
// blocks exactly as a Vote's skip list doubles back through a sender's
// swimlane, enabling State.FindAncestor to locate an ancestor at a given
// height in O(log distance).
func newBlock(forkChoice common.Hash, values [][]byte, state *State) *Block {
	b := &Block{Values: values}
	parent, ok := state.OptBlock(forkChoice)
	if !ok {
		// Genesis: no parent block exists yet.
		return b
	}
	parentHash := forkChoice
	b.Parent = &parentHash
	b.Height = parent.Height + 1
	b.SkipIdx = append(b.SkipIdx, parentHash)
	levels := bits.TrailingZeros64(b.Height)
	for i := 0; i < levels; i++ {
		ancestor := state.Block(b.SkipIdx[i])
		if i >= len(ancestor.SkipIdx) {
			break
		}
		b.SkipIdx = append(b.SkipIdx, ancestor.SkipIdx[i])
	}
	return b
}

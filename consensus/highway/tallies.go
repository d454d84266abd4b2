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
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// tallies accumulates, for a given panorama, the weighted vote count each
// known block has received — a block's own weight plus every weight its
// descendants in the panorama have contributed, exactly like a GHOST
// fork-choice tally. Grounded on highway-core's (unreleased, not in the
// retrieved pack) tallies.rs as described by state.rs::fork_choice's use
// of it: collect once per panorama, then decide() the heaviest chain tip.
type tallies struct {
	weight     map[common.Hash]Weight
	childrenOf map[common.Hash][]common.Hash
	// roots holds every distinct parentless (height-0) block reached while
	// tallying pan. More than one is possible — e.g. two validators who
	// never saw each other both proposing their own genesis — and they
	// must compete against each other exactly like any other set of
	// siblings, not be resolved by last-write-wins.
	roots []common.Hash
}

// newTallies walks every validator's latest correct block, and every
// ancestor of it, accumulating that validator's weight onto each. Building
// the full ancestor chain for every validator is O(validators × chain
// depth); a production fork-choice would instead stop early once a
// validator's weight is already counted past the lowest contested fork
// point, but this package has no finality detector of its own to make that
// optimization worth the extra bookkeeping.
func newTallies(pan Panorama, state *State) tallies {
	t := tallies{
		weight:     make(map[common.Hash]Weight),
		childrenOf: make(map[common.Hash][]common.Hash),
	}
	registered := make(map[common.Hash]bool)
	registeredRoot := make(map[common.Hash]bool)
	for _, obs := range pan.EnumerateCorrect() {
		vote := state.Vote(obs.Hash)
		w := state.validators.Weight(obs.Index)
		blockHash := vote.Block
		for {
			blk, ok := state.OptBlock(blockHash)
			if !ok {
				// This validator's swimlane hasn't produced an actual
				// block yet (every vote so far has been a "no new block"
				// vote) — nothing to tally for it.
				break
			}
			t.weight[blockHash] = t.weight[blockHash].Add(w)
			if !blk.HasParent() {
				if !registeredRoot[blockHash] {
					t.roots = append(t.roots, blockHash)
					registeredRoot[blockHash] = true
				}
				break
			}
			if !registered[blockHash] {
				t.childrenOf[*blk.Parent] = append(t.childrenOf[*blk.Parent], blockHash)
				registered[blockHash] = true
			}
			blockHash = *blk.Parent
		}
	}
	return t
}

func (t tallies) isEmpty() bool {
	return len(t.roots) == 0
}

// decide picks the heaviest of the tallied roots, then descends from it,
// at each fork picking the child with the greatest accumulated weight.
// Ties — at the root level or any fork below it — are broken by ascending
// lexicographic order of the block hash's bytes: an arbitrary but fixed
// total order, so the tie-break is deterministic and identical across all
// correct validators.
func (t tallies) decide() (common.Hash, bool) {
	if len(t.roots) == 0 {
		return common.Hash{}, false
	}
	current := t.heaviest(t.roots)
	for {
		children := t.childrenOf[current]
		if len(children) == 0 {
			return current, true
		}
		current = t.heaviest(children)
	}
}

// heaviest returns the candidate with the greatest accumulated weight,
// breaking ties by ascending lexicographic hash order.
func (t tallies) heaviest(candidates []common.Hash) common.Hash {
	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case t.weight[c] > t.weight[best]:
			best = c
		case t.weight[c] == t.weight[best] && bytes.Compare(c[:], best[:]) < 0:
			best = c
		}
	}
	return best
}

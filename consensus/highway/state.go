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
	"github.com/ethereum/go-ethereum/log"
)

// State is the validator-weighted vote DAG for a single consensus instance.
// It is deliberately passive: it never schedules anything, never calls out
// over the network, and never consults a wall clock — every operation is
// synchronous and callers are expected to serialize access the same way
// consensus/pob.go's ProofOfBehavior guards its own mutable fields with a
// single embedder-level lock.
type State struct {
	validators *Validators
	ctx        Context

	votes    map[common.Hash]*Vote
	blocks   map[common.Hash]*Block
	evidence map[ValidatorIndex]*Evidence
	panorama Panorama

	log log.Logger
}

// New returns an empty State for the given validator set.
func New(validators *Validators, ctx Context) *State {
	return &State{
		validators: validators,
		ctx:        ctx,
		votes:      make(map[common.Hash]*Vote),
		blocks:     make(map[common.Hash]*Block),
		evidence:   make(map[ValidatorIndex]*Evidence),
		panorama:   NewPanorama(validators.Len()),
		log:        log.New("module", "highway"),
	}
}

// Validators returns the validator set this state was constructed with.
func (s *State) Validators() *Validators {
	return s.validators
}

// Weight returns the voting power of validator idx.
func (s *State) Weight(idx ValidatorIndex) Weight {
	return s.validators.Weight(idx)
}

// Panorama returns a copy of this state's current view of every
// validator's latest activity. A copy, not the live slice, since callers
// must never be able to mutate a State's internals through the value they
// got back.
func (s *State) Panorama() Panorama {
	return s.panorama.Clone()
}

// HasVote reports whether a vote with this hash is known.
func (s *State) HasVote(hash common.Hash) bool {
	_, ok := s.votes[hash]
	return ok
}

// OptVote returns the vote with this hash, if known.
func (s *State) OptVote(hash common.Hash) (*Vote, bool) {
	v, ok := s.votes[hash]
	return v, ok
}

// Vote returns the vote with this hash. Panics if it isn't known: callers
// are expected to have checked HasVote (directly, or indirectly via
// MissingDependency) before dereferencing a hash found inside a panorama
// or skip list that this same state constructed.
func (s *State) Vote(hash common.Hash) *Vote {
	v, ok := s.votes[hash]
	if !ok {
		panic("highway: unknown vote hash " + hash.Hex())
	}
	return v
}

// HasEvidence reports whether idx has recorded equivocation evidence.
func (s *State) HasEvidence(idx ValidatorIndex) bool {
	_, ok := s.evidence[idx]
	return ok
}

// OptEvidence returns idx's equivocation evidence, if any.
func (s *State) OptEvidence(idx ValidatorIndex) (*Evidence, bool) {
	e, ok := s.evidence[idx]
	return e, ok
}

// AddEvidence records e and marks its perpetrator Faulty in this state's
// own panorama. A no-op if evidence against the perpetrator is already
// recorded: a validator cannot un-equivocate, and a second proof changes
// nothing.
func (s *State) AddEvidence(e *Evidence) {
	idx := e.Perpetrator()
	if s.HasEvidence(idx) {
		return
	}
	s.evidence[idx] = e
	s.panorama[idx] = FaultyObservation()
}

// OptBlock returns the block with this hash, if known.
func (s *State) OptBlock(hash common.Hash) (*Block, bool) {
	b, ok := s.blocks[hash]
	return b, ok
}

// Block returns the block with this hash. Panics if it isn't known, for
// the same reason Vote does.
func (s *State) Block(hash common.Hash) *Block {
	b, ok := s.blocks[hash]
	if !ok {
		panic("highway: unknown block hash " + hash.Hex())
	}
	return b
}

// WireVote reconstructs the SignedWireVote that, if hashed and admitted,
// would reproduce the stored vote at hash exactly. Values is only non-nil
// when this vote's hash also names a block (i.e. it introduced one).
func (s *State) WireVote(hash common.Hash) (SignedWireVote, bool) {
	v, ok := s.votes[hash]
	if !ok {
		return SignedWireVote{}, false
	}
	var values [][]byte
	if blk, ok := s.blocks[hash]; ok {
		values = blk.Values
	}
	return SignedWireVote{
		WireVote: WireVote{
			Panorama:  v.Panorama.Clone(),
			Sender:    v.Sender,
			SeqNumber: v.SeqNumber,
			Instant:   v.Instant,
			Values:    values,
		},
		Signature: v.Signature,
	}, true
}

// MissingDependency returns the first reference in pan — scanning
// validators in ascending ValidatorIndex order, so the result is
// deterministic — that this state does not yet hold, if any.
func (s *State) MissingDependency(pan Panorama) (Dependency, bool) {
	for i, obs := range pan {
		idx := ValidatorIndex(i)
		switch {
		case obs.IsCorrect():
			hash, _ := obs.Correct()
			if !s.HasVote(hash) {
				return VoteDependency(hash), true
			}
		case obs.IsFaulty():
			if !s.HasEvidence(idx) {
				return EvidenceDependency(idx), true
			}
		}
	}
	return Dependency{}, false
}

// missingDependencies returns every reference in pan this state does not
// yet hold, not just the first. The synchronizer adapter (adapter.go)
// needs the complete set up front to build a DepSpec that can be resolved
// one item at a time without re-deriving the list after each arrival.
func (s *State) missingDependencies(pan Panorama) []Dependency {
	var deps []Dependency
	for i, obs := range pan {
		idx := ValidatorIndex(i)
		switch {
		case obs.IsCorrect():
			hash, _ := obs.Correct()
			if !s.HasVote(hash) {
				deps = append(deps, VoteDependency(hash))
			}
		case obs.IsFaulty():
			if !s.HasEvidence(idx) {
				deps = append(deps, EvidenceDependency(idx))
			}
		}
	}
	return deps
}

// AddVote validates and, if valid, admits swv. On success it returns the
// vote's hash; on failure it returns an *AddVoteError wrapping swv and the
// sentinel error describing why. Admitting a vote whose hash is already
// known is a no-op that returns (hash, nil): the synchronizer relies on
// this idempotence to safely re-deliver items.
func (s *State) AddVote(swv SignedWireVote) (common.Hash, error) {
	hash := swv.Hash(s.ctx)
	if s.HasVote(hash) {
		return hash, nil
	}
	if err := s.validateVote(swv); err != nil {
		return common.Hash{}, &AddVoteError{Vote: swv, Cause: err}
	}

	s.updatePanorama(hash, swv)

	// The block this vote votes for is decided from the panorama it was
	// created against — what its sender had itself seen — not from this
	// state's own (possibly more complete) panorama: the sender's own
	// hash can't be resolved to a block yet at this point, and using the
	// vote's own declared view is what allows two validators who haven't
	// seen each other's latest vote to honestly fork.
	forkChoice, _ := s.ForkChoice(swv.Panorama)

	var blockHash common.Hash
	if swv.HasNewBlock() {
		s.blocks[hash] = newBlock(forkChoice, swv.Values, s)
		blockHash = hash
	} else {
		blockHash = forkChoice
	}

	s.votes[hash] = newVote(swv, blockHash, s)
	s.log.Trace("admitted vote", "hash", hash, "sender", swv.Sender, "seq", swv.SeqNumber)
	return hash, nil
}

// validateVote checks everything about swv that can be checked without
// mutating state: that its sender is a known, non-equivocating validator,
// that its panorama is structurally sound, internally consistent, and
// fully resolved against this state, and that its sequence number and
// instant correctly continue the sender's own swimlane as that swimlane
// looked when swv was built.
func (s *State) validateVote(swv SignedWireVote) error {
	if int(swv.Sender) >= s.validators.Len() {
		return ErrUnknownValidator
	}
	if s.HasEvidence(swv.Sender) {
		return ErrEquivocatingSender
	}
	if len(swv.Panorama) != s.validators.Len() {
		return ErrPanorama
	}
	if !s.panoramaValid(swv.Panorama) {
		return ErrPanorama
	}

	claimedPrev := swv.Panorama.Get(swv.Sender)
	if claimedPrev.IsFaulty() {
		// A vote cannot be built on top of its own sender already being
		// known (by its own author) to be faulty.
		return ErrPanorama
	}

	if !swv.HasNewBlock() && swv.Panorama.IsEmpty() {
		// A vote that introduces no block and cites no correct vote
		// would endorse nothing, not even a genesis — there is no block
		// for fork choice to resolve it to.
		return ErrPanorama
	}

	var expectedSeq, expectedInstant uint64
	if prevHash, ok := claimedPrev.Correct(); ok {
		prevVote := s.Vote(prevHash)
		expectedSeq = prevVote.SeqNumber + 1
		expectedInstant = prevVote.Instant
	}
	if swv.SeqNumber != expectedSeq {
		return ErrSequenceNumber
	}
	if swv.Instant < expectedInstant {
		return ErrStaleInstant
	}
	return nil
}

// panoramaValid reports whether pan is internally consistent: every
// Faulty entry must name a validator this state holds evidence against,
// and every Correct(h) entry must name a vote this state already holds, cast by the
// very validator the entry is indexed under, whose own panorama is no
// more advanced than pan itself. That last condition is what rejects a
// vote that "unsees" something one of its own cited votes had already
// seen — pan must be at least as advanced as every panorama it points to.
// Ported from highway-core's State::is_panorama_valid.
func (s *State) panoramaValid(pan Panorama) bool {
	for i, obs := range pan {
		if obs.IsFaulty() && !s.HasEvidence(ValidatorIndex(i)) {
			return false
		}
		hash, ok := obs.Correct()
		if !ok {
			continue
		}
		vote, ok := s.OptVote(hash)
		if !ok {
			return false
		}
		if vote.Sender != ValidatorIndex(i) {
			return false
		}
		if !s.PanoramaGeq(pan, vote.Panorama) {
			return false
		}
	}
	return true
}

// updatePanorama folds the arrival of a newly validated vote (identified
// by hash) into this state's own panorama entry for its sender. Ported
// from highway-core's State::update_panorama:
//   - once Faulty, a sender's entry never moves off Faulty;
//   - if the vote agrees with what this state already believed was the
//     sender's latest vote, the entry simply advances to the new hash;
//   - if this state has never seen the sender before, the entry becomes
//     the new hash directly;
//   - otherwise the vote disagrees with this state's record of the
//     sender's swimlane — proof of equivocation — and the entry becomes
//     Faulty.
func (s *State) updatePanorama(hash common.Hash, swv SignedWireVote) {
	sender := swv.Sender
	current := s.panorama.Get(sender)

	if current.IsFaulty() {
		return
	}

	if current.IsNone() {
		s.panorama[sender] = CorrectObservation(hash)
		return
	}

	currHash, _ := current.Correct()
	if claimedHash, ok := swv.Panorama.Get(sender).Correct(); ok && claimedHash == currHash {
		s.panorama[sender] = CorrectObservation(hash)
		return
	}

	s.AddEvidence(s.detectEquivocation(sender, currHash, swv))
}

// detectEquivocation locates the stored vote from sender that conflicts
// with newSwv — the one at the same sequence number, found by descending
// knownHash's skip list — and pairs the two as Evidence. If no vote at
// that exact sequence number is on record (e.g. the sender skipped ahead),
// knownHash's own vote stands in as the other half of the proof: it is
// still a sibling in the same swimlane that newSwv fails to build on.
func (s *State) detectEquivocation(sender ValidatorIndex, knownHash common.Hash, newSwv SignedWireVote) *Evidence {
	conflictHash := knownHash
	if found, ok := s.findInSwimlane(knownHash, newSwv.SeqNumber); ok {
		conflictHash = found
	}
	oldSwv, _ := s.WireVote(conflictHash)
	return &Evidence{Vote0: oldSwv, Vote1: newSwv}
}

// findInSwimlane descends sender's swimlane from the vote at fromHash,
// using each vote's skip list to jump back by the largest power of two
// that doesn't overshoot, until it lands on the vote with sequence number
// target. Returns false if the swimlane is shorter than target (the
// sender never voted at that sequence number, as recorded from fromHash).
func (s *State) findInSwimlane(fromHash common.Hash, target uint64) (common.Hash, bool) {
	current := fromHash
	for {
		v := s.Vote(current)
		if v.SeqNumber == target {
			return current, true
		}
		if v.SeqNumber < target {
			return common.Hash{}, false
		}
		level := log2Floor(v.SeqNumber - target)
		if level >= len(v.SkipIdx) {
			level = len(v.SkipIdx) - 1
		}
		if level < 0 {
			return common.Hash{}, false
		}
		current = v.SkipIdx[level]
	}
}

// Swimlane returns an iterator function over sender's votes starting at
// hash and walking backward through its predecessors. Each call returns
// the next (hash, vote) pair and true, until the swimlane is exhausted,
// at which point it returns (zero, nil, false) forever.
func (s *State) Swimlane(hash common.Hash) func() (common.Hash, *Vote, bool) {
	next := hash
	hasNext := true
	return func() (common.Hash, *Vote, bool) {
		if !hasNext {
			return common.Hash{}, nil, false
		}
		v, ok := s.OptVote(next)
		if !ok {
			hasNext = false
			return common.Hash{}, nil, false
		}
		h := next
		if prev, ok := v.Previous(); ok {
			next = prev
		} else {
			hasNext = false
		}
		return h, v, true
	}
}

// PanoramaGeq reports whether every entry of pan is at least as advanced
// as the corresponding entry of baseline — i.e. whether pan could be a
// panorama observed no earlier than baseline.
func (s *State) PanoramaGeq(pan, baseline Panorama) bool {
	for i := range pan {
		if !s.obsGeq(pan[i], baseline[i]) {
			return false
		}
	}
	return true
}

// obsGeq reports whether obs is at least as advanced as baseline, per a
// single validator's entry: None < Correct(h) < Correct(descendant of h)
// < Faulty, with Faulty absorbing (once reached, it is the ceiling).
func (s *State) obsGeq(obs, baseline Observation) bool {
	switch {
	case baseline.IsNone():
		return true
	case baseline.IsFaulty():
		return obs.IsFaulty()
	default:
		baseHash, _ := baseline.Correct()
		if obs.IsFaulty() {
			return true
		}
		obsHash, ok := obs.Correct()
		if !ok {
			return false
		}
		if obsHash == baseHash {
			return true
		}
		return s.seesCorrect(obsHash, baseHash)
	}
}

// seesCorrect reports whether ancestor lies on descendant's own swimlane,
// i.e. whether the vote at descendant was built after having seen the
// vote at ancestor.
func (s *State) seesCorrect(descendant, ancestor common.Hash) bool {
	target := s.Vote(ancestor).SeqNumber
	found, ok := s.findInSwimlane(descendant, target)
	return ok && found == ancestor
}

// ForkChoice computes the GHOST-style fork choice over pan: the tip of the
// chain that accumulates the greatest validator weight, descending from
// genesis and, at each fork, picking the heaviest child (tallies.decide's
// deterministic tie-break applies when two children tie exactly).
func (s *State) ForkChoice(pan Panorama) (common.Hash, bool) {
	return newTallies(pan, s).decide()
}

// FindAncestor returns the ancestor of the block at hash with the given
// height, if hash's block is itself at or above height. Descends the
// block skip list the same way findInSwimlane descends a vote skip list.
func (s *State) FindAncestor(hash common.Hash, height uint64) (common.Hash, bool) {
	current := hash
	for {
		blk, ok := s.OptBlock(current)
		if !ok {
			return common.Hash{}, false
		}
		if blk.Height == height {
			return current, true
		}
		if blk.Height < height {
			return common.Hash{}, false
		}
		level := log2Floor(blk.Height - height)
		if level >= len(blk.SkipIdx) {
			level = len(blk.SkipIdx) - 1
		}
		if level < 0 {
			return common.Hash{}, false
		}
		current = blk.SkipIdx[level]
	}
}

// log2Floor returns floor(log2(x)) for x > 0, and -1 for x == 0 (the
// "no further skip level needed" sentinel used by findInSwimlane and
// FindAncestor).
func log2Floor(x uint64) int {
	if x == 0 {
		return -1
	}
	return bits.Len64(x) - 1
}

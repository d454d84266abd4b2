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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three validators weighted 3, 4, 5 — the same weights highway-core's own
// test module uses for Alice, Bob and Carol.
const (
	Alice ValidatorIndex = iota
	Bob
	Carol
)

func testValidators() *Validators {
	ids := []ValidatorID{
		common.BytesToAddress([]byte{1}),
		common.BytesToAddress([]byte{2}),
		common.BytesToAddress([]byte{3}),
	}
	weights := []Weight{3, 4, 5}
	return NewValidators(ids, weights)
}

func newTestState() *State {
	return New(testValidators(), NewDefaultContext())
}

// sign builds a SignedWireVote. The signature is a placeholder: State
// never verifies signatures itself (that's left to the caller's
// Context/crypto collaborator), so any non-nil byte slice tagged to the
// sender is enough to exercise every code path here.
func sign(sender ValidatorIndex, seq uint64, instant uint64, pan Panorama, values [][]byte) SignedWireVote {
	return SignedWireVote{
		WireVote: WireVote{
			Panorama:  pan,
			Sender:    sender,
			SeqNumber: seq,
			Instant:   instant,
			Values:    values,
		},
		Signature: []byte{byte(sender)},
	}
}

func TestAddVoteFirstVoteFromEachSender(t *testing.T) {
	s := newTestState()
	pan := NewPanorama(3)

	aliceHash, err := s.AddVote(sign(Alice, 0, 1, pan.Clone(), [][]byte{[]byte("genesis")}))
	require.NoError(t, err)
	assert.True(t, s.HasVote(aliceHash))

	pan[Alice] = CorrectObservation(aliceHash)
	bobHash, err := s.AddVote(sign(Bob, 0, 2, pan.Clone(), nil))
	require.NoError(t, err)
	assert.True(t, s.HasVote(bobHash))
}

func TestAddVoteEmptyPanoramaWithoutBlockRejected(t *testing.T) {
	s := newTestState()
	pan := NewPanorama(3)

	// A vote that introduces no block and has seen nothing at all would
	// endorse nothing, not even a genesis.
	_, err := s.AddVote(sign(Alice, 0, 1, pan.Clone(), nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPanorama)
}

func TestAddVoteWrongSequenceNumberRejected(t *testing.T) {
	s := newTestState()
	pan := NewPanorama(3)

	firstHash, err := s.AddVote(sign(Alice, 0, 1, pan.Clone(), [][]byte{[]byte("genesis")}))
	require.NoError(t, err)

	pan[Alice] = CorrectObservation(firstHash)
	_, err = s.AddVote(sign(Alice, 5, 2, pan.Clone(), nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSequenceNumber)

	var addErr *AddVoteError
	require.ErrorAs(t, err, &addErr)
	assert.Equal(t, Alice, addErr.Vote.Sender)
}

func TestAddVoteUnresolvedPanoramaRejected(t *testing.T) {
	s := newTestState()
	pan := NewPanorama(3)
	pan[Bob] = CorrectObservation(common.HexToHash("0xdeadbeef"))

	_, err := s.AddVote(sign(Alice, 0, 1, pan, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPanorama)
}

func TestAddVoteUnseeingCitedDependencyRejected(t *testing.T) {
	s := newTestState()

	// Alice proposes genesis.
	aliceHash, err := s.AddVote(sign(Alice, 0, 1, NewPanorama(3), [][]byte{[]byte("genesis")}))
	require.NoError(t, err)

	aPan := NewPanorama(3)
	aPan[Alice] = CorrectObservation(aliceHash)

	// Carol votes, having seen only Alice.
	carolHash, err := s.AddVote(sign(Carol, 0, 2, aPan.Clone(), nil))
	require.NoError(t, err)

	// Bob's first vote has seen only Alice too.
	bobFirstHash, err := s.AddVote(sign(Bob, 0, 3, aPan.Clone(), nil))
	require.NoError(t, err)

	// Bob's second vote has since also seen Carol.
	bobSecondPan := aPan.Clone()
	bobSecondPan[Bob] = CorrectObservation(bobFirstHash)
	bobSecondPan[Carol] = CorrectObservation(carolHash)
	bobSecondHash, err := s.AddVote(sign(Bob, 1, 4, bobSecondPan, nil))
	require.NoError(t, err)

	// A third Bob vote whose panorama cites Bob's own second vote (so the
	// sequence-number check alone would pass) but omits Carol, even though
	// the cited vote's own panorama already saw her: this "unsees" a
	// dependency Bob's own prior vote had already resolved.
	regressed := aPan.Clone()
	regressed[Bob] = CorrectObservation(bobSecondHash)
	_, err = s.AddVote(sign(Bob, 2, 5, regressed, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPanorama)
}

func TestAddVoteStaleInstantRejected(t *testing.T) {
	s := newTestState()
	pan := NewPanorama(3)

	aliceHash, err := s.AddVote(sign(Alice, 0, 10, pan.Clone(), [][]byte{[]byte("genesis")}))
	require.NoError(t, err)

	pan[Alice] = CorrectObservation(aliceHash)
	_, err = s.AddVote(sign(Alice, 1, 5, pan, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStaleInstant)
}

func TestAddVoteDoubleVoteDetectedAsEquivocation(t *testing.T) {
	s := newTestState()
	pan := NewPanorama(3)

	firstHash, err := s.AddVote(sign(Alice, 0, 1, pan.Clone(), [][]byte{[]byte("genesis")}))
	require.NoError(t, err)

	advanced := pan.Clone()
	advanced[Alice] = CorrectObservation(firstHash)
	secondHash, err := s.AddVote(sign(Alice, 1, 2, advanced, nil))
	require.NoError(t, err)

	// A third vote that claims seq 1 again, but built on the *first* vote
	// rather than the second, disagrees with this state's record of
	// Alice's swimlane: Alice has equivocated.
	conflicting := pan.Clone()
	conflicting[Alice] = CorrectObservation(firstHash)
	_, err = s.AddVote(sign(Alice, 1, 3, conflicting, nil))
	require.NoError(t, err)

	assert.True(t, s.HasEvidence(Alice))
	ev, ok := s.OptEvidence(Alice)
	require.True(t, ok)
	assert.Equal(t, Alice, ev.Perpetrator())

	got := s.Panorama()
	assert.True(t, got.Get(Alice).IsFaulty())

	// secondHash is unused directly but documents which vote the
	// equivocation was detected against.
	_ = secondHash
}

func TestFindInSwimlaneSkipListDoublesBack(t *testing.T) {
	s := newTestState()
	pan := NewPanorama(3)

	var hashes []common.Hash
	for seq := uint64(0); seq < 10; seq++ {
		var values [][]byte
		if seq == 0 {
			values = [][]byte{[]byte("genesis")}
		}
		hash, err := s.AddVote(sign(Alice, seq, seq, pan.Clone(), values))
		require.NoError(t, err)
		hashes = append(hashes, hash)
		pan[Alice] = CorrectObservation(hash)
	}

	a8 := s.Vote(hashes[8])
	want := []common.Hash{hashes[7], hashes[6], hashes[4], hashes[0]}
	assert.Equal(t, want, a8.SkipIdx)

	found, ok := s.findInSwimlane(hashes[9], 3)
	require.True(t, ok)
	assert.Equal(t, hashes[3], found)
}

func TestForkChoicePicksHeaviestChain(t *testing.T) {
	s := newTestState()
	pan := NewPanorama(3)

	// Alice proposes the genesis block.
	aliceHash, err := s.AddVote(sign(Alice, 0, 1, pan.Clone(), [][]byte{[]byte("genesis")}))
	require.NoError(t, err)
	pan[Alice] = CorrectObservation(aliceHash)

	// Bob (weight 4) and Carol (weight 5) both see only the genesis block
	// and fork from it with competing blocks.
	bobPan := pan.Clone()
	bobHash, err := s.AddVote(sign(Bob, 0, 2, bobPan, [][]byte{[]byte("bob-fork")}))
	require.NoError(t, err)

	carolPan := pan.Clone()
	carolHash, err := s.AddVote(sign(Carol, 0, 2, carolPan, [][]byte{[]byte("carol-fork")}))
	require.NoError(t, err)

	// Carol's heavier (weight 5) fork should win fork choice once every
	// validator's latest vote is taken into account.
	full := NewPanorama(3)
	full[Alice] = CorrectObservation(aliceHash)
	full[Bob] = CorrectObservation(bobHash)
	full[Carol] = CorrectObservation(carolHash)

	tip, ok := s.ForkChoice(full)
	require.True(t, ok)
	assert.Equal(t, carolHash, tip)
}

func TestPanoramaGeqMonotonicity(t *testing.T) {
	s := newTestState()
	pan := NewPanorama(3)

	hash, err := s.AddVote(sign(Alice, 0, 1, pan.Clone(), [][]byte{[]byte("genesis")}))
	require.NoError(t, err)

	before := pan.Clone()
	after := pan.Clone()
	after[Alice] = CorrectObservation(hash)

	assert.True(t, s.PanoramaGeq(after, before))
	assert.False(t, s.PanoramaGeq(before, after))
}

func TestForkChoiceTalliesAcrossMultipleGenesisBlocks(t *testing.T) {
	s := newTestState()

	// Alice and Carol each propose their own genesis block, unaware of
	// each other.
	aliceHash, err := s.AddVote(sign(Alice, 0, 1, NewPanorama(3), [][]byte{[]byte("a-genesis")}))
	require.NoError(t, err)
	carolHash, err := s.AddVote(sign(Carol, 0, 1, NewPanorama(3), [][]byte{[]byte("c-genesis")}))
	require.NoError(t, err)

	// Bob has only seen Alice's genesis, and casts a vote with no new
	// block of his own.
	bobPan := NewPanorama(3)
	bobPan[Alice] = CorrectObservation(aliceHash)
	bobHash, err := s.AddVote(sign(Bob, 0, 2, bobPan, nil))
	require.NoError(t, err)

	// Alice's genesis has weight 3 (her own) + 4 (Bob's) = 7, more than
	// Carol's lone 5 — Alice's block must win even though it is the
	// first-enumerated root, not the last one tallied.
	full := NewPanorama(3)
	full[Alice] = CorrectObservation(aliceHash)
	full[Bob] = CorrectObservation(bobHash)
	full[Carol] = CorrectObservation(carolHash)

	tip, ok := s.ForkChoice(full)
	require.True(t, ok)
	assert.Equal(t, aliceHash, tip)
}

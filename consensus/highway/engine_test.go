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

	"github.com/casperlabs/highway/consensus/highway/synchronizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRequestsMissingVoteDependency(t *testing.T) {
	e := NewEngine[string](testValidators(), NewDefaultContext())
	pan := NewPanorama(3)

	aliceHash, err := e.State.AddVote(sign(Alice, 0, 1, pan.Clone(), [][]byte{[]byte("genesis")}))
	require.NoError(t, err)

	bobPan := pan.Clone()
	bobPan[Alice] = CorrectObservation(aliceHash)
	bobVote := sign(Bob, 0, 2, bobPan, nil)
	bobHash := bobVote.Hash(e.State.ctx)

	// Deliver Bob's vote directly to a fresh engine that has never heard of
	// Alice: it references Alice's vote in its panorama, so the engine must
	// come back asking for it rather than admitting Bob's vote outright.
	fresh := NewEngine[string](testValidators(), NewDefaultContext())
	out := fresh.HandleMessage("peer", synchronizer.NewItemMessage(VoteDependency(bobHash), VoteItem(bobVote)))
	require.Len(t, out, 1)
	assert.Equal(t, synchronizer.RequestDependency, out[0].Msg.Kind)
	assert.Equal(t, VoteDependency(aliceHash), out[0].Msg.ID)
	assert.False(t, fresh.State.HasVote(bobHash))

	// Resolving Alice's vote should fan out to admit Bob's queued vote too.
	aliceVote, ok := e.State.WireVote(aliceHash)
	require.True(t, ok)
	out = fresh.HandleMessage("peer", synchronizer.DependencyResolvedMessage(VoteDependency(aliceHash), VoteItem(aliceVote)))
	assert.Empty(t, out)
	assert.True(t, fresh.State.HasVote(aliceHash))
	assert.True(t, fresh.State.HasVote(bobHash))
}

func TestEngineServesKnownVoteOnRequest(t *testing.T) {
	e := NewEngine[string](testValidators(), NewDefaultContext())
	pan := NewPanorama(3)

	aliceHash, err := e.State.AddVote(sign(Alice, 0, 1, pan.Clone(), [][]byte{[]byte("genesis")}))
	require.NoError(t, err)

	out := e.HandleMessage("peer", synchronizer.RequestDependencyMessage[Dependency, Item](VoteDependency(aliceHash)))
	require.Len(t, out, 1)
	assert.Equal(t, synchronizer.DependencyResolved, out[0].Msg.Kind)
	require.NotNil(t, out[0].Msg.Item.Vote)
	assert.Equal(t, Alice, out[0].Msg.Item.Vote.Sender)
}

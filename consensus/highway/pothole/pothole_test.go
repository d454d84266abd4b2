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

package pothole

import (
	"testing"

	"github.com/casperlabs/highway/consensus/highway/synchronizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapterFinalizesContiguousPrefix(t *testing.T) {
	a := NewAdapter()

	accepted, spec := a.HandleNewItem(0, Block{Index: 0, Value: []byte("genesis")})
	assert.True(t, accepted)
	assert.Nil(t, spec)

	fb, ok := a.Poll()
	require.True(t, ok)
	assert.Equal(t, Index(0), fb.Index)

	_, ok = a.Poll()
	assert.False(t, ok)
}

func TestAdapterReportsMissingPredecessor(t *testing.T) {
	a := NewAdapter()

	accepted, spec := a.HandleNewItem(3, Block{Index: 3, Value: []byte("d")})
	assert.False(t, accepted)
	require.NotNil(t, spec)

	dep, ok := spec.NextDependency()
	require.True(t, ok)
	assert.Equal(t, Index(2), dep)
}

func TestAdapterFinalizesOutOfOrderArrivals(t *testing.T) {
	a := NewAdapter()

	accepted, _ := a.HandleNewItem(1, Block{Index: 1, Value: []byte("b1")})
	assert.False(t, accepted)

	accepted, _ = a.HandleNewItem(0, Block{Index: 0, Value: []byte("b0")})
	assert.True(t, accepted)

	// The adapter alone does not re-offer block 1; that is the
	// synchronizer's job via its reverse-dependency index.
	accepted, _ = a.HandleNewItem(1, Block{Index: 1, Value: []byte("b1")})
	assert.True(t, accepted)

	var got []Index
	for {
		fb, ok := a.Poll()
		if !ok {
			break
		}
		got = append(got, fb.Index)
	}
	assert.Equal(t, []Index{0, 1}, got)
}

func TestProtocolDrivesSynchronizerAndFinalizes(t *testing.T) {
	p := NewProtocol[string]()

	results := p.HandleMessage("peer", synchronizer.NewItemMessage(Index(1), Block{Index: 1, Value: []byte("b1")}))
	require.Len(t, results, 1)
	assert.Equal(t, ResultCreatedNewMessage, results[0].Kind)
	assert.Equal(t, synchronizer.RequestDependency, results[0].Message.Msg.Kind)
	assert.Equal(t, Index(0), results[0].Message.Msg.ID)

	results = p.HandleMessage("peer", synchronizer.NewItemMessage(Index(0), Block{Index: 0, Value: []byte("b0")}))
	require.Len(t, results, 2)
	assert.Equal(t, ResultFinalizedBlock, results[0].Kind)
	assert.Equal(t, Index(0), results[0].Index)
	assert.Equal(t, ResultFinalizedBlock, results[1].Kind)
	assert.Equal(t, Index(1), results[1].Index)
}

func TestDepSpecRequestsInAscendingOrder(t *testing.T) {
	spec := NewDepSpec([]Index{5, 1, 3})

	var order []Index
	for {
		dep, ok := spec.NextDependency()
		if !ok {
			break
		}
		order = append(order, dep)
	}
	assert.Equal(t, []Index{1, 3, 5}, order)
	assert.False(t, spec.AllResolved())

	for _, dep := range order {
		assert.True(t, spec.ResolveDependency(dep))
	}
	assert.True(t, spec.AllResolved())
}

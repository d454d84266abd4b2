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

// Package pothole is a minimal block-chained protocol where block i (for
// i > 0) depends on block i-1, and a block finalizes the instant its full
// prefix from 0 is present. It exists to exercise the generic synchronizer
// end-to-end against a second, structurally different ProtocolState than
// the vote DAG in consensus/highway — ported near-verbatim from the
// original Pothole reference protocol's dependency-spec and adapter shape.
package pothole

import (
	"sort"

	"github.com/casperlabs/highway/consensus/highway/synchronizer"
)

// Index identifies a block by its position in the chain.
type Index uint64

// Block is the opaque payload Pothole chains together. Concrete block
// content (the consensus value) is left to the caller; Pothole only cares
// about chain position.
type Block struct {
	Index Index
	Value []byte
}

// DepSpec tracks a queued block's single outstanding dependency — its
// predecessor's index — generalized to a set in case a future caller wants
// to require more than one predecessor. Grounded on pothole.rs's
// PotholeDepSpec, whose BTreeSet of pending/requested indices this mirrors
// with an explicitly sorted slice instead (Go's map iteration order is
// undefined, and dependency requests must be deterministic).
type DepSpec struct {
	toRequest []Index
	requested map[Index]struct{}
}

// NewDepSpec builds a DepSpec over deps, requesting them in ascending
// index order.
func NewDepSpec(deps []Index) *DepSpec {
	sorted := append([]Index(nil), deps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &DepSpec{toRequest: sorted, requested: make(map[Index]struct{})}
}

// NextDependency pops the next dependency to request, if any remain.
func (d *DepSpec) NextDependency() (Index, bool) {
	if len(d.toRequest) == 0 {
		return 0, false
	}
	next := d.toRequest[0]
	d.toRequest = d.toRequest[1:]
	d.requested[next] = struct{}{}
	return next, true
}

// ResolveDependency marks idx resolved. Returns whether it was outstanding.
func (d *DepSpec) ResolveDependency(idx Index) bool {
	for i, v := range d.toRequest {
		if v == idx {
			d.toRequest = append(d.toRequest[:i], d.toRequest[i+1:]...)
			return true
		}
	}
	if _, ok := d.requested[idx]; ok {
		delete(d.requested, idx)
		return true
	}
	return false
}

// AllResolved reports whether every dependency has been resolved.
func (d *DepSpec) AllResolved() bool {
	return len(d.toRequest) == 0 && len(d.requested) == 0
}

// FinalizedBlock is one block the Adapter has determined is now final: its
// entire prefix back to index 0 is present.
type FinalizedBlock struct {
	Index Index
	Block Block
}

// Adapter implements synchronizer.ProtocolState for the Pothole chain, and
// additionally tracks finalization: the longest unbroken prefix from index
// 0 it has assembled so far. Grounded on pothole.rs's PotholeWrapper, which
// plays the same two roles (ProtocolState impl plus a finalized-block
// queue drained by poll()).
type Adapter struct {
	blocks    map[Index]Block
	nextFinal Index
	finalized []FinalizedBlock
}

// NewAdapter returns an Adapter with no blocks yet.
func NewAdapter() *Adapter {
	return &Adapter{blocks: make(map[Index]Block)}
}

// GetDependency implements synchronizer.ProtocolState.
func (a *Adapter) GetDependency(idx Index) (Block, bool) {
	b, ok := a.blocks[idx]
	return b, ok
}

// HandleNewItem implements synchronizer.ProtocolState. A block at index 0
// has no dependency; a block at index i > 0 depends on index i-1.
// Because a block is only admitted once its predecessor is present, every
// admitted block completes the prefix from 0 and is finalized at once.
func (a *Adapter) HandleNewItem(idx Index, b Block) (bool, *DepSpec) {
	if _, ok := a.blocks[idx]; ok {
		return true, nil
	}
	if idx > 0 {
		if _, ok := a.blocks[idx-1]; !ok {
			return false, NewDepSpec([]Index{idx - 1})
		}
	}
	a.blocks[idx] = b
	for {
		blk, ok := a.blocks[a.nextFinal]
		if !ok {
			break
		}
		a.finalized = append(a.finalized, FinalizedBlock{Index: a.nextFinal, Block: blk})
		a.nextFinal++
	}
	return true, nil
}

// Poll drains one finalized block, if any are pending, in index order.
func (a *Adapter) Poll() (FinalizedBlock, bool) {
	if len(a.finalized) == 0 {
		return FinalizedBlock{}, false
	}
	fb := a.finalized[0]
	a.finalized = a.finalized[1:]
	return fb, true
}

// ResultKind discriminates the tagged union Protocol.HandleMessage
// returns, mirroring pothole.rs's ConsensusProtocolResult.
type ResultKind uint8

const (
	// ResultCreatedNewMessage wraps a message the synchronizer needs sent.
	ResultCreatedNewMessage ResultKind = iota
	// ResultFinalizedBlock reports a newly finalized block.
	ResultFinalizedBlock
)

// Result is one entry of what Protocol.HandleMessage returns.
type Result[NodeID comparable] struct {
	Kind    ResultKind
	Message synchronizer.Outbound[NodeID, Index, Block] // meaningful iff Kind == ResultCreatedNewMessage
	Index   Index                                       // meaningful iff Kind == ResultFinalizedBlock
	Block   Block                                       // meaningful iff Kind == ResultFinalizedBlock
}

// Protocol pairs an Adapter with a Synchronizer instantiated over it,
// matching pothole.rs's PotholeWithSynchronizer.
type Protocol[NodeID comparable] struct {
	Adapter *Adapter
	sync    *synchronizer.Synchronizer[NodeID, Index, Block, *DepSpec]
}

// NewProtocol returns a Protocol with an empty chain.
func NewProtocol[NodeID comparable]() *Protocol[NodeID] {
	return &Protocol[NodeID]{
		Adapter: NewAdapter(),
		sync:    synchronizer.New[NodeID, Index, Block, *DepSpec](),
	}
}

// HandleMessage feeds an inbound message from sender through the
// synchronizer, then drains any blocks that became finalized as a result,
// into a single ordered Result slice — outbound messages first, then
// finalizations, matching the order pothole.rs's into_consensus_result
// imposes (network traffic flushed before finality callbacks fire).
func (p *Protocol[NodeID]) HandleMessage(sender NodeID, msg synchronizer.Message[Index, Block]) []Result[NodeID] {
	outbound := p.sync.HandleMessage(p.Adapter, sender, msg)
	results := make([]Result[NodeID], 0, len(outbound))
	for _, ob := range outbound {
		results = append(results, Result[NodeID]{Kind: ResultCreatedNewMessage, Message: ob})
	}
	for {
		fb, ok := p.Adapter.Poll()
		if !ok {
			break
		}
		results = append(results, Result[NodeID]{Kind: ResultFinalizedBlock, Index: fb.Index, Block: fb.Block})
	}
	return results
}

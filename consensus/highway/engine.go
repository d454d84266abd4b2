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

import "github.com/casperlabs/highway/consensus/highway/synchronizer"

// Engine pairs a State with a Synchronizer instantiated over it, so a
// caller can hand inbound wire messages straight to HandleMessage and get
// back whatever needs to go out over the network, without wiring up the
// synchronizer's generic parameters itself. It is generic only in NodeID,
// since State fixes the item/dependency types already.
//
// Engine does not produce FinalizedBlock results the way the pothole
// adapter's Protocol does, nor ScheduleTimer or CreateNewBlock results:
// those require an active-validator policy (when to propose, when a
// summit finalizes a block) that is out of scope for the bare vote DAG —
// leader election and finality detection live above this layer. What this
// engine adapts is purely message delivery.
type Engine[NodeID comparable] struct {
	State *State
	sync  *synchronizer.Synchronizer[NodeID, Dependency, Item, *DepSpec]
}

// NewEngine returns an Engine wrapping a fresh State for validators.
func NewEngine[NodeID comparable](validators *Validators, ctx Context) *Engine[NodeID] {
	return &Engine[NodeID]{
		State: New(validators, ctx),
		sync:  synchronizer.New[NodeID, Dependency, Item, *DepSpec](),
	}
}

// HandleMessage feeds an inbound synchronizer message from sender into the
// engine's State, returning whatever messages the engine needs to send in
// response (dependency requests, or replies to one).
func (e *Engine[NodeID]) HandleMessage(sender NodeID, msg synchronizer.Message[Dependency, Item]) []synchronizer.Outbound[NodeID, Dependency, Item] {
	return e.sync.HandleMessage(e.State, sender, msg)
}

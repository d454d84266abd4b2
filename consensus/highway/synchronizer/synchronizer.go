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

// Package synchronizer drives delivery of dependency-bearing items — votes,
// evidence, blocks, or whatever a particular ProtocolState deals in — across
// an unreliable, reordering transport. It never inspects an item's content:
// everything it needs to know about an item's prerequisites comes from the
// DependencySpec the ProtocolState itself hands back on rejection. This
// package is built against Go generics rather than the teacher's
// concrete-type idiom: it is generic over the node identity, protocol
// state, dependency spec, item id, and item payload types, and the
// module's go1.22 toolchain supports it.
package synchronizer

import "github.com/ethereum/go-ethereum/log"

// DependencySpec is the set of not-yet-satisfied prerequisites a
// ProtocolState reported when it rejected an item. ItemID doubles as the
// dependency identifier type: resolving a dependency is exactly delivering
// the item it names.
type DependencySpec[ItemID comparable] interface {
	// NextDependency returns the next dependency to request, if any
	// remain that haven't been requested yet.
	NextDependency() (ItemID, bool)
	// ResolveDependency marks id as resolved. Returns whether id was
	// actually outstanding.
	ResolveDependency(id ItemID) bool
	// AllResolved reports whether every dependency is now resolved.
	AllResolved() bool
}

// ProtocolState is the consensus logic the synchronizer drives. It is
// never told about peers, message framing, or retransmission: all of that
// is this package's job.
type ProtocolState[ItemID comparable, Item any, Spec DependencySpec[ItemID]] interface {
	// GetDependency serves a previously admitted item back out by id, for
	// replying to a peer's RequestDependency.
	GetDependency(id ItemID) (Item, bool)
	// HandleNewItem tries to admit item (named id). On success it
	// returns (true, zero Spec). On failure because of unresolved
	// dependencies, it returns (false, spec) naming them.
	HandleNewItem(id ItemID, item Item) (accepted bool, spec Spec)
}

// MessageKind discriminates the three wire messages this protocol speaks.
type MessageKind uint8

const (
	// NewItem announces an item a peer believes the receiver doesn't
	// have yet.
	NewItem MessageKind = iota
	// RequestDependency asks a peer to send the item named by ID.
	RequestDependency
	// DependencyResolved answers a RequestDependency with the item.
	DependencyResolved
)

// Message is the wire form of everything this package sends and receives.
// Item is meaningful for NewItem and DependencyResolved; it is the zero
// value for RequestDependency.
type Message[ItemID comparable, Item any] struct {
	Kind MessageKind
	ID   ItemID
	Item Item
}

// NewItemMessage builds a NewItem message.
func NewItemMessage[ItemID comparable, Item any](id ItemID, item Item) Message[ItemID, Item] {
	return Message[ItemID, Item]{Kind: NewItem, ID: id, Item: item}
}

// RequestDependencyMessage builds a RequestDependency message.
func RequestDependencyMessage[ItemID comparable, Item any](id ItemID) Message[ItemID, Item] {
	return Message[ItemID, Item]{Kind: RequestDependency, ID: id}
}

// DependencyResolvedMessage builds a DependencyResolved message.
func DependencyResolvedMessage[ItemID comparable, Item any](id ItemID, item Item) Message[ItemID, Item] {
	return Message[ItemID, Item]{Kind: DependencyResolved, ID: id, Item: item}
}

// Outbound pairs a Message with the peer it should be sent to. HandleMessage
// returns a batch of these; the caller owns actually transmitting them.
type Outbound[NodeID comparable, ItemID comparable, Item any] struct {
	To  NodeID
	Msg Message[ItemID, Item]
}

type queuedItem[ItemID comparable, Item any, Spec any] struct {
	id   ItemID
	item Item
	spec Spec
}

// peerState is the per-peer bookkeeping the synchronizer keeps: which
// items are in flight (requested but not yet resolved), which not-yet-
// admitted items are queued waiting on them, and the reverse index from a
// dependency to everything queued on it. Grounded on pothole.rs's
// PotholeDepSpec bookkeeping, generalized from a single BTreeSet to a
// full per-peer map since the generic synchronizer serves many distinct
// protocols, each with its own notion of "dependency."
type peerState[ItemID comparable, Item any, Spec any] struct {
	inFlight map[ItemID]struct{}
	queue    map[ItemID]*queuedItem[ItemID, Item, Spec]
	waiters  map[ItemID][]ItemID // dependency id -> queued item ids waiting on it, in arrival order
}

func newPeerState[ItemID comparable, Item any, Spec any]() *peerState[ItemID, Item, Spec] {
	return &peerState[ItemID, Item, Spec]{
		inFlight: make(map[ItemID]struct{}),
		queue:    make(map[ItemID]*queuedItem[ItemID, Item, Spec]),
		waiters:  make(map[ItemID][]ItemID),
	}
}

// Synchronizer drives item delivery for a single consensus instance across
// however many peers it hears from. It holds no reference to the
// ProtocolState it drives: HandleMessage takes one as a parameter, so one
// Synchronizer value is reusable across however the caller chooses to
// structure ownership.
//
// Per-peer timeouts and retransmission scheduling are left to the caller:
// this package takes no position on timeout policy.
type Synchronizer[NodeID comparable, ItemID comparable, Item any, Spec DependencySpec[ItemID]] struct {
	peers map[NodeID]*peerState[ItemID, Item, Spec]
	log   log.Logger
}

// New returns an empty Synchronizer.
func New[NodeID comparable, ItemID comparable, Item any, Spec DependencySpec[ItemID]]() *Synchronizer[NodeID, ItemID, Item, Spec] {
	return &Synchronizer[NodeID, ItemID, Item, Spec]{
		peers: make(map[NodeID]*peerState[ItemID, Item, Spec]),
		log:   log.New("module", "synchronizer"),
	}
}

func (s *Synchronizer[NodeID, ItemID, Item, Spec]) peer(n NodeID) *peerState[ItemID, Item, Spec] {
	p, ok := s.peers[n]
	if !ok {
		p = newPeerState[ItemID, Item, Spec]()
		s.peers[n] = p
	}
	return p
}

// HandleMessage processes one inbound message from sender against state,
// returning whatever outbound messages the processing produces (dependency
// requests, or replies to a RequestDependency).
func (s *Synchronizer[NodeID, ItemID, Item, Spec]) HandleMessage(
	state ProtocolState[ItemID, Item, Spec],
	sender NodeID,
	msg Message[ItemID, Item],
) []Outbound[NodeID, ItemID, Item] {
	switch msg.Kind {
	case NewItem, DependencyResolved:
		return s.handleNewItem(state, sender, msg.ID, msg.Item)
	case RequestDependency:
		return s.handleRequestDependency(state, sender, msg.ID)
	default:
		return nil
	}
}

func (s *Synchronizer[NodeID, ItemID, Item, Spec]) handleNewItem(
	state ProtocolState[ItemID, Item, Spec],
	sender NodeID,
	id ItemID,
	item Item,
) []Outbound[NodeID, ItemID, Item] {
	p := s.peer(sender)

	accepted, spec := state.HandleNewItem(id, item)
	if accepted {
		delete(p.inFlight, id)
		delete(p.queue, id)
		return s.fanOut(state, sender, id)
	}

	p.queue[id] = &queuedItem[ItemID, Item, Spec]{id: id, item: item, spec: spec}
	var out []Outbound[NodeID, ItemID, Item]
	if dep, ok := spec.NextDependency(); ok {
		p.waiters[dep] = append(p.waiters[dep], id)
		if _, already := p.inFlight[dep]; !already {
			p.inFlight[dep] = struct{}{}
			out = append(out, Outbound[NodeID, ItemID, Item]{
				To:  sender,
				Msg: RequestDependencyMessage[ItemID, Item](dep),
			})
		}
	}
	return out
}

func (s *Synchronizer[NodeID, ItemID, Item, Spec]) handleRequestDependency(
	state ProtocolState[ItemID, Item, Spec],
	sender NodeID,
	id ItemID,
) []Outbound[NodeID, ItemID, Item] {
	item, ok := state.GetDependency(id)
	if !ok {
		s.log.Debug("ignoring request for unknown dependency", "peer", sender)
		return nil
	}
	return []Outbound[NodeID, ItemID, Item]{{
		To:  sender,
		Msg: DependencyResolvedMessage(id, item),
	}}
}

// fanOut re-offers every item queued on resolved to state, now that
// resolved itself has just been admitted. Admitting one of those in turn
// can unblock further items further down the queue, so it recurses; the
// recursion terminates because each recursive step first removes one item
// from the peer's queue.
func (s *Synchronizer[NodeID, ItemID, Item, Spec]) fanOut(
	state ProtocolState[ItemID, Item, Spec],
	sender NodeID,
	resolved ItemID,
) []Outbound[NodeID, ItemID, Item] {
	p := s.peer(sender)
	waiterIDs, ok := p.waiters[resolved]
	if !ok {
		return nil
	}
	delete(p.waiters, resolved)
	delete(p.inFlight, resolved)

	var out []Outbound[NodeID, ItemID, Item]
	for _, waiterID := range waiterIDs {
		q, ok := p.queue[waiterID]
		if !ok {
			continue
		}
		if !q.spec.ResolveDependency(resolved) {
			continue
		}
		if !q.spec.AllResolved() {
			if dep, ok := q.spec.NextDependency(); ok {
				p.waiters[dep] = append(p.waiters[dep], waiterID)
				if _, already := p.inFlight[dep]; !already {
					p.inFlight[dep] = struct{}{}
					out = append(out, Outbound[NodeID, ItemID, Item]{
						To:  sender,
						Msg: RequestDependencyMessage[ItemID, Item](dep),
					})
				}
			}
			continue
		}
		delete(p.queue, waiterID)
		accepted, _ := state.HandleNewItem(waiterID, q.item)
		if accepted {
			out = append(out, s.fanOut(state, sender, waiterID)...)
		}
	}
	return out
}

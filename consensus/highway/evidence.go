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

import "github.com/ethereum/go-ethereum/common"

// Evidence records a proven equivocation: two distinct votes, signed by the
// same validator, at the same sequence number. Once a State holds Evidence
// for a validator, every panorama entry for that validator becomes, and
// stays, ObsFaulty.
type Evidence struct {
	Vote0 SignedWireVote
	Vote1 SignedWireVote
}

// Perpetrator returns the index of the equivocating validator.
func (e *Evidence) Perpetrator() ValidatorIndex {
	return e.Vote0.Sender
}

// DependencyKind discriminates the two things a vote's panorama can point
// at that a State might not yet hold.
type DependencyKind uint8

const (
	// DepVote names a missing vote by hash.
	DepVote DependencyKind = iota
	// DepEvidence names missing evidence by the perpetrator's index.
	DepEvidence
)

// Dependency identifies a single piece of state — a vote or a validator's
// equivocation evidence — that some other vote's panorama refers to. It
// doubles as the synchronizer's generic ItemID for this package: resolving
// a Dependency is exactly delivering the vote or evidence it names.
type Dependency struct {
	Kind  DependencyKind
	Hash  common.Hash    // meaningful iff Kind == DepVote
	Index ValidatorIndex // meaningful iff Kind == DepEvidence
}

// VoteDependency names a missing vote.
func VoteDependency(hash common.Hash) Dependency {
	return Dependency{Kind: DepVote, Hash: hash}
}

// EvidenceDependency names missing evidence against idx.
func EvidenceDependency(idx ValidatorIndex) Dependency {
	return Dependency{Kind: DepEvidence, Index: idx}
}

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

import "errors"

// Sentinel errors returned (wrapped in AddVoteError) by State.AddVote. Named
// and declared the way consensus/pob.go declares its errUnknownBlock-style
// sentinels, so callers can errors.Is against a stable value instead of
// matching on string content.
var (
	// ErrPanorama means the vote's panorama refers to a vote or evidence
	// this state does not hold, or is otherwise inconsistent (e.g. it
	// regresses a validator the sender has already seen as Faulty).
	ErrPanorama = errors.New("highway: vote panorama is invalid or incomplete")

	// ErrSequenceNumber means the vote's sequence number does not
	// immediately follow the sender's previous vote in this state's view.
	ErrSequenceNumber = errors.New("highway: vote has the wrong sequence number")

	// ErrEquivocatingSender means the vote's sender already has evidence
	// recorded against it, so any further vote from it is rejected outright
	// rather than silently accepted into a dead swimlane.
	ErrEquivocatingSender = errors.New("highway: sender already has equivocation evidence recorded")

	// ErrUnknownValidator means the vote names a sender index outside the
	// bounds of the state's validator set.
	ErrUnknownValidator = errors.New("highway: vote sender is not a known validator")

	// ErrStaleInstant means the vote's instant is earlier than the sender's
	// previous vote's instant. An equal instant is accepted.
	ErrStaleInstant = errors.New("highway: vote instant is earlier than the sender's previous vote")
)

// AddVoteError reports that State.AddVote rejected a vote, and returns the
// rejected vote itself so the caller can decide whether to retry it (e.g.
// once its missing dependencies arrive) rather than discard it.
type AddVoteError struct {
	Vote  SignedWireVote
	Cause error
}

func (e *AddVoteError) Error() string {
	return e.Cause.Error()
}

func (e *AddVoteError) Unwrap() error {
	return e.Cause
}

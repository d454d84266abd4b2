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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// WireVote is the network form of a vote, before it is wrapped with a
// signature. Every field is an exported, RLP-encodable plain type, so
// rlp.EncodeToBytes works on it directly without a hand-written EncodeRLP
// — the same declarative style consensus/pob.go uses for its own header
// fields, just without the pointer-receiver signature fixup pob needs for
// its legacy/typed header split.
type WireVote struct {
	Panorama  Panorama
	Sender    ValidatorIndex
	SeqNumber uint64
	Instant   uint64   // milliseconds since the Unix epoch
	Values    [][]byte // nil: no new block; non-nil (incl. empty): new block with these payloads
}

// SignedWireVote wraps a WireVote with the sender's signature over its
// canonical bytes. This is the form State.AddVote accepts and the form
// Evidence stores both halves of an equivocation as, since a dependency
// resolution (and an equivocation proof) both need the signature kept
// alongside the vote they came with.
type SignedWireVote struct {
	WireVote
	Signature []byte
}

// Bytes returns the canonical RLP encoding of the unsigned wire vote. This
// is what gets hashed and what gets signed: the signature itself is never
// part of what it signs over.
func (wv *WireVote) Bytes() []byte {
	b, err := rlp.EncodeToBytes(wv)
	if err != nil {
		// Every field is a plain RLP-encodable type; a failure here means
		// a programming error (e.g. a field type rlp can't handle), not a
		// runtime condition callers can recover from.
		panic("highway: failed to RLP-encode WireVote: " + err.Error())
	}
	return b
}

// Hash returns the context-defined hash of the vote's canonical bytes.
// Two wire votes with identical field values always hash identically,
// regardless of which SignedWireVote (if any) wraps them.
func (wv *WireVote) Hash(ctx Context) common.Hash {
	return ctx.HashBytes(wv.Bytes())
}

// HasNewBlock reports whether this vote introduces a new block.
func (wv *WireVote) HasNewBlock() bool {
	return wv.Values != nil
}

// Hash returns the hash of the underlying WireVote. The signature does not
// participate in the hash: it signs the hash, so including it would be
// circular.
func (swv *SignedWireVote) Hash(ctx Context) common.Hash {
	return swv.WireVote.Hash(ctx)
}

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
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"
)

// inMemorySignatures bounds the default Context's recovered-signer cache,
// matching the size consensus/pob.go keeps for its own ecrecover cache.
const inMemorySignatures = 4096

// Context is the capability bundle a State is constructed with. It keeps
// hashing (and, by extension, signature verification) out of the State
// struct entirely: State only ever calls back into Context, never reaches
// for a global hash function, so it can be reused across chains with
// different cryptography without a code change. It is a capability bundle
// passed by reference at construction, not an interface State itself
// implements.
type Context interface {
	// HashBytes returns the canonical hash of data. Must be deterministic
	// and collision-resistant; WireVote.Hash and block identity both rely
	// on it directly.
	HashBytes(data []byte) common.Hash
}

// DefaultContext is the Keccak256-based Context this module ships, reusing
// the hash function consensus/pob.go's SealHash already standardizes on
// for everything else in this codebase's header/signature plumbing.
type DefaultContext struct {
	sigCache *lru.ARCCache
}

// NewDefaultContext builds a DefaultContext with a bounded recovered-signer
// cache, the same shape as pob.New's recents/signatures caches.
func NewDefaultContext() *DefaultContext {
	cache, err := lru.NewARC(inMemorySignatures)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// inMemorySignatures never is.
		panic("highway: failed to allocate signature cache: " + err.Error())
	}
	return &DefaultContext{sigCache: cache}
}

// HashBytes implements Context using Keccak256, matching the hash
// consensus/pob.go's SealHash computes over RLP-encoded header fields.
func (c *DefaultContext) HashBytes(data []byte) common.Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	var h common.Hash
	hasher.Sum(h[:0])
	return h
}

// CachedSigner returns the validator ID previously recovered for sigHash,
// if any recover call has cached one. Signature recovery itself (the
// asymmetric-crypto half) is left to the caller, the same way pob.ecrecover
// only consults its ARC cache before doing the actual recovery — State
// never verifies signatures itself; that's the adapter/caller's job, not
// the passive vote DAG's.
func (c *DefaultContext) CachedSigner(sigHash common.Hash) (ValidatorID, bool) {
	v, ok := c.sigCache.Get(sigHash)
	if !ok {
		return ValidatorID{}, false
	}
	return v.(ValidatorID), true
}

// CacheSigner records that sigHash was recovered to signer, so a later
// CachedSigner call for the same hash skips the recovery math.
func (c *DefaultContext) CacheSigner(sigHash common.Hash, signer ValidatorID) {
	c.sigCache.Add(sigHash, signer)
}

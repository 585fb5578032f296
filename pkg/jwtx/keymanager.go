package jwtx

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// KeyManager wires key generation, signing, and verification together for an
// instance. Multiple signing keys distribute signing load; any of them can
// verify via the shared KeySet.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures the KeyManager.
type KeyManagerOptions struct {
	// Issuer is the issuer claim (iss) validated on every token.
	Issuer string

	// NumKeys is how many signing keys to generate (default 3, max 10).
	NumKeys int
}

// NewEphemeralKeyManager creates a KeyManager with ephemeral Ed25519 keys.
// Keys exist only in memory, so every access token becomes invalid when the
// service restarts. Refresh tokens survive restarts; clients simply exchange
// them for a fresh access token.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	numKeys := opts.NumKeys
	if numKeys <= 0 {
		numKeys = 3
	}
	if numKeys > 10 {
		numKeys = 10
	}

	keyset := NewKeySet()
	signers := make([]Signer, 0, numKeys)

	for i := 0; i < numKeys; i++ {
		signer, err := GenerateEdDSASigner(uuid.NewString())
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate signer %d: %w", i+1, err)
		}
		signers = append(signers, signer)
		keyset.AddSigner(signer)
	}

	return &KeyManager{
		Verifier: NewVerifierEdDSA(keyset, opts.Issuer),
		KeySet:   keyset,
		signers:  signers,
	}, nil
}

// GetSigner returns a randomly selected signing key.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if len(km.signers) == 1 {
		return km.signers[0]
	}
	return km.signers[rand.IntN(len(km.signers))]
}

package crypto

import (
	"context"
	"encoding/hex"
	"fmt"
)

// StaticProvider returns a single key from a hex-encoded string for all
// systems. Intended for dev and single-deployment use; per-system keys
// require the vault provider.
type StaticProvider struct {
	key []byte
}

// NewStaticProvider creates a StaticProvider from a hex-encoded 32-byte key.
func NewStaticProvider(hexKey string) (*StaticProvider, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("crypto/static: invalid hex key: %w", err)
	}

	if len(key) != 32 {
		return nil, fmt.Errorf("crypto/static: key must be 32 bytes, got %d", len(key))
	}

	return &StaticProvider{key: key}, nil
}

// GetKey returns a copy of the static key regardless of system.
// The system ID still participates as GCM associated data, so ciphertexts
// remain bound to their system even with a shared key.
func (p *StaticProvider) GetKey(_ context.Context, _ string) ([]byte, error) {
	out := make([]byte, len(p.key))
	copy(out, p.key)

	return out, nil
}

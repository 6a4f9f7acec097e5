// Package crypto provides per-system AES-256-GCM encryption for
// confidential mapped attributes.
package crypto

import "context"

// KeyProvider returns AES-256 encryption keys for target systems.
type KeyProvider interface {
	// GetKey returns the 32-byte AES-256 key for the given system.
	GetKey(ctx context.Context, systemID string) ([]byte, error)
}

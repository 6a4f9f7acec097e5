package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// encryptConfidential marshals the confidential attribute map to JSON,
// encrypts it under the source system's key, and returns JSON bytes for the
// JSONB confidential column. Stored as {"_enc": "base64...", "_sys": "uuid"}
// so the envelope records which system key sealed it.
func (b *Base) encryptConfidential(ctx context.Context, systemID string, values map[string]any) ([]byte, error) {
	if len(values) == 0 {
		return []byte("{}"), nil
	}

	plain, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshalling confidential values: %w", err)
	}

	ciphertext, err := b.Crypto.Encrypt(ctx, systemID, plain)
	if err != nil {
		return nil, fmt.Errorf("encrypting confidential values: %w", err)
	}

	envelope := map[string]string{"_enc": ciphertext, "_sys": systemID}

	enc, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshalling encrypted envelope: %w", err)
	}

	return enc, nil
}

// decryptConfidential opens a confidential envelope produced by
// encryptConfidential. An empty envelope yields a nil map.
func (b *Base) decryptConfidential(ctx context.Context, raw []byte) (map[string]any, error) {
	var envelope map[string]string
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshalling confidential envelope: %w", err)
	}

	ciphertext, ok := envelope["_enc"]
	if !ok {
		return nil, nil
	}

	systemID := envelope["_sys"]

	plain, err := b.Crypto.Decrypt(ctx, systemID, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypting confidential values: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("unmarshalling confidential values: %w", err)
	}

	return values, nil
}

package session

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kalakriti/commerce-engine/internal/storage"
)

// LegacyTokenKey is the unnamespaced key older releases stored the bare auth
// token under.
const LegacyTokenKey = "authToken"

// MigrateLegacyToken wraps a bare legacy auth token into the {user, token}
// session shape under the namespaced key. It is idempotent: a missing legacy
// key is a no-op, and an already-populated session is never overwritten (the
// legacy key is still consumed).
func MigrateLegacyToken(ctx context.Context, backend storage.Backend, namespace string) error {
	payload, ok, err := backend.Get(ctx, LegacyTokenKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	token := decodeLegacyToken(payload)
	sessionKey := namespace + ":" + StoreSuffix

	if _, exists, err := backend.Get(ctx, sessionKey); err != nil {
		return err
	} else if !exists && token != "" {
		wrapped, err := json.Marshal(Session{Token: token, User: &User{}})
		if err != nil {
			return err
		}
		if err := backend.Set(ctx, sessionKey, wrapped); err != nil {
			return err
		}
	}
	return backend.Delete(ctx, LegacyTokenKey)
}

// decodeLegacyToken accepts both a JSON-encoded string and a raw token value.
func decodeLegacyToken(payload []byte) string {
	var token string
	if err := json.Unmarshal(payload, &token); err == nil {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(string(payload))
}

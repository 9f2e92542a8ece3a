// Package auth provides the authentication core for nippo: the credential
// policy validator, bcrypt password hashing, and the session manager.
//
// Sessions are server-side state keyed by an opaque token:
//
//	manager := auth.NewSessionManager(auth.NewMemorySessionStore(), 24*time.Hour)
//	token, err := manager.Create(user.ID, user.Username)
//	// token format: nippo_<base64url(32 random bytes)>
//
// The token is delivered to the browser as an HttpOnly cookie and resolved
// on every guarded request:
//
//	identity, ok := manager.Resolve(token)
//	if !ok {
//		// unknown token or session past its 24h absolute expiry
//	}
//
// The backing SessionStore is injected so the in-memory map used by a
// single instance can be swapped for a shared store without touching the
// Create/Resolve/Destroy contract.
package auth

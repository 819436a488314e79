package auth

import (
	"sync"
	"time"
)

// RevocationList remembers the identifiers of session tokens invalidated by
// logout until their natural expiry. It is process-local, matching the
// single-instance deployment model.
type RevocationList struct {
	mu      sync.Mutex
	clock   func() time.Time
	revoked map[string]time.Time
}

// NewRevocationList constructs an empty list.
func NewRevocationList(clock func() time.Time) *RevocationList {
	if clock == nil {
		clock = time.Now
	}
	return &RevocationList{
		clock:   clock,
		revoked: make(map[string]time.Time),
	}
}

// Revoke marks a token identifier as invalid until expiresAt.
func (l *RevocationList) Revoke(tokenID string, expiresAt time.Time) {
	if tokenID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune()
	if expiresAt.IsZero() {
		expiresAt = l.clock().Add(defaultTokenTTL)
	}
	l.revoked[tokenID] = expiresAt
}

// IsRevoked reports whether the token identifier has been revoked and is still
// within its original lifetime.
func (l *RevocationList) IsRevoked(tokenID string) bool {
	if tokenID == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	expiresAt, ok := l.revoked[tokenID]
	if !ok {
		return false
	}
	if l.clock().After(expiresAt) {
		delete(l.revoked, tokenID)
		return false
	}
	return true
}

// prune drops entries whose tokens have expired on their own. Caller holds mu.
func (l *RevocationList) prune() {
	now := l.clock()
	for tokenID, expiresAt := range l.revoked {
		if now.After(expiresAt) {
			delete(l.revoked, tokenID)
		}
	}
}

// Package session provides the session-scoped key/value store that backs the
// durable error queue. A "session" is one development loop: restarts of the
// same checkout share a store, parallel checkouts do not.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/google/uuid"
)

// Store is a synchronous key/value store scoped to a single development
// session. There is exactly one writer per session, so implementations do not
// need cross-process locking.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool)
	// Set writes value under key, creating storage lazily on first write.
	Set(key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// DefaultBaseDir resolves where session state lives, preferring the user
// cache directory and falling back to the system temp directory.
func DefaultBaseDir() (string, error) {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return dir, nil
	}
	if dir := os.TempDir(); dir != "" {
		return dir, nil
	}
	return "", os.ErrNotExist
}

// DefaultSessionID derives a stable session id from the working directory so
// the queue survives a process restart of the same dev loop. When the working
// directory is unknown the id is random and durability degrades to the
// lifetime of this process tree.
func DefaultSessionID() string {
	wd, err := os.Getwd()
	if err != nil {
		return uuid.NewString()[:8]
	}
	sum := sha256.Sum256([]byte(wd))
	return hex.EncodeToString(sum[:4])
}

// Package localstore provides the persistent string key-value store the SDK
// keeps its identity in: browser ID, access token, auth token and the raw
// session blob handed to the hosted widget.
package localstore

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Well-known keys.
const (
	KeyBrowserID   = "browser_id"
	KeyAccessToken = "access_token"
	KeyAuthToken   = "auth_token"
	KeySessionData = "session_data"
)

// Store is the local persistence boundary. Implementations must be safe for
// concurrent use.
type Store interface {
	GetString(key string) (string, error)
	SetString(key, value string) error
}

// bidMu serializes first-access browser ID generation so concurrent callers
// never mint two IDs for the same store.
var bidMu sync.Mutex

// BrowserID returns the stored browser ID, generating and persisting a new
// one on first access. Every API request carries this ID.
func BrowserID(s Store) (string, error) {
	bidMu.Lock()
	defer bidMu.Unlock()

	bid, err := s.GetString(KeyBrowserID)
	if err != nil {
		return "", err
	}
	if bid != "" {
		return bid, nil
	}
	bid = strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.SetString(KeyBrowserID, bid); err != nil {
		return "", err
	}
	return bid, nil
}

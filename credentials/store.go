// Package credentials holds the durable key/value record that survives a
// restart: the bearer token and its absolute expiry.
package credentials

// Keys of the persisted token record. Both are always written together and
// cleared together by the session manager.
const (
	KeyAccessToken          = "accessToken"
	KeyAccessTokenExpiresAt = "accessTokenExpiresAt"
)

// Reader is the read-only view handed to code outside the session manager.
type Reader interface {
	// Get returns errors.ErrNotFound when the key is absent
	Get(key string) (string, error)
}

// Store is the full read/write capability. Only the session manager should
// hold one; everything else gets a Reader.
type Store interface {
	Reader

	// Set overwrites the value stored under key
	Set(key, value string) error

	// Remove deletes key; removing an absent key is not an error
	Remove(key string) error
}

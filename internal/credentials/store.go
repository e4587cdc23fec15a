package credentials

import "errors"

// Slot names used by every backend, matching the browser storage keys.
const (
	SlotAccessToken  = "access_token"
	SlotRefreshToken = "refresh_token"
	SlotLegacyToken  = "token"
)

// ErrReadOnly is returned by backends that cannot persist tokens.
var ErrReadOnly = errors.New("credentials store is read-only")

// Credentials holds the bearer tokens of the signed-in administrator.
type Credentials struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	// LegacyToken is the single "token" slot written by older clients.
	LegacyToken string `json:"token,omitempty"`
}

// Bearer returns the token to attach to outgoing requests.
func (c Credentials) Bearer() string {
	if c.AccessToken != "" {
		return c.AccessToken
	}
	return c.LegacyToken
}

// Empty reports whether no slot is populated.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && c.LegacyToken == ""
}

// Store persists credentials. Implementations must be safe for concurrent
// use and must apply Update atomically with respect to other calls.
type Store interface {
	Get() (Credentials, error)
	Set(c Credentials) error
	// Update applies fn to the current credentials and persists the result.
	Update(fn func(c *Credentials)) error
	Clear() error
}

package credentials

import "os"

// Environment variables read by NewEnvStore.
const (
	EnvAccessToken  = "DASHBOARD_ACCESS_TOKEN"
	EnvRefreshToken = "DASHBOARD_REFRESH_TOKEN"
)

// NewEnvStore seeds an in-memory store from the environment. Refreshed
// tokens live only for the lifetime of the process.
func NewEnvStore() *MemoryStore {
	return NewMemoryStore(Credentials{
		AccessToken:  os.Getenv(EnvAccessToken),
		RefreshToken: os.Getenv(EnvRefreshToken),
	})
}

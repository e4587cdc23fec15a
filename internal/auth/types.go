package auth

// TokenPair is the body returned by the login and refresh endpoints.
// Refresh is empty when the server did not rotate the refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// LoginRequest is the body accepted by the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the body accepted by the refresh endpoint.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

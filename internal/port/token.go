package port

// TokenVerifier is the authentication collaborator boundary: given a bearer
// credential it returns the authenticated user ID. The core never parses the
// credential itself.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// TokenIssuer mints a bearer credential for an authenticated user.
type TokenIssuer interface {
	IssueToken(userID string) (string, error)
}

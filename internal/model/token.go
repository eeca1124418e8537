package model

// TokenManager mints and validates stateless session tokens.
type TokenManager interface {
	GenerateToken(identity Identity) (string, error)
	ParseToken(token string) (Identity, error)
}

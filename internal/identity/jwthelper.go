package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are embedded in the session token.
type SessionClaims struct {
	UserID          string `json:"user_id"`
	UserEmail       string `json:"user_email"`
	UserDisplayName string `json:"user_display_name"`
	jwt.RegisteredClaims
}

// MintSessionJWT creates a signed HS256 session token.
func MintSessionJWT(accountID string, userEmail string, userDisplayName string, issuer string, signingKey []byte, ttl time.Duration) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		UserID:          accountID,
		UserEmail:       userEmail,
		UserDisplayName: userDisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt.Add(-30 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(signingKey)
	return signed, expiresAt, err
}

func parseSessionClaims(tokenText string, configuration ServerConfig) (*SessionClaims, bool) {
	parsedToken, parseErr := jwt.ParseWithClaims(tokenText, &SessionClaims{}, func(parsed *jwt.Token) (interface{}, error) {
		return configuration.AppJWTSigningKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if parseErr != nil || parsedToken == nil || !parsedToken.Valid {
		return nil, false
	}
	claims, ok := parsedToken.Claims.(*SessionClaims)
	if !ok || claims.Issuer != configuration.AppJWTIssuer {
		return nil, false
	}
	return claims, true
}

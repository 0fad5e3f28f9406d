// Package security provides token verification, credential checks, and
// identifier generation.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// IdentityClaims is what the portal needs from a verified identity token.
type IdentityClaims struct {
	Subject string
	Email   string
	Name    string
}

// VerifyIdentityToken validates an HS256 identity token and extracts the
// claims the session layer cares about. Expiry is enforced by the parser.
func VerifyIdentityToken(tokenString, jwtSecret string) (*IdentityClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("token missing subject")
	}

	identity := &IdentityClaims{Subject: sub}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}

// GenerateIdentityToken mints an HS256 token for a subject. Used by the
// break-glass admin login and by tests.
func GenerateIdentityToken(subject, email, name, jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"name":  name,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

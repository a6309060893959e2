package indexer

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL bounds how long a minted backend token stays valid. Tokens
// are minted per request, so a short lifetime costs nothing.
const tokenTTL = 5 * time.Minute

// signToken mints a short-lived HS256 JWT identifying the user to the
// RAG API. An empty secret disables auth entirely (local development
// backends), matching the backend's own behavior.
func (c *Client) signToken() (string, error) {
	if c.secret == "" {
		return "", nil
	}

	claims := jwt.MapClaims{
		"id":  c.userID,
		"exp": jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secret))
	if err != nil {
		return "", fmt.Errorf("sign backend token: %w", err)
	}
	return signed, nil
}

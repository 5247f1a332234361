package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Actor is the chat-platform member on whose behalf a request is made.
type Actor struct {
	UserID         int64   `json:"user_id"`
	Roles          []int64 `json:"roles"`
	ManageMessages bool    `json:"manage_messages"`
}

type Claims struct {
	Roles          []int64 `json:"roles,omitempty"`
	ManageMessages bool    `json:"manage_messages,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() (Actor, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Actor{}, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return Actor{UserID: id, Roles: c.Roles, ManageMessages: c.ManageMessages}, nil
}

func GenerateJWT(actor Actor, secret string, expireHours int) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles:          actor.Roles,
		ManageMessages: actor.ManageMessages,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(actor.UserID, 10),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// Package auth turns the hosted service's access token into the identity
// the data gateway acts on behalf of.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated user as described by the token claims
type Identity struct {
	UserID    string
	Email     string
	FullName  string // from user_metadata, may be empty
	AvatarURL string // from user_metadata, may be empty
}

// DisplayName returns the full name, falling back to the local part of the email
func (id Identity) DisplayName() string {
	if id.FullName != "" {
		return id.FullName
	}
	local, _, _ := strings.Cut(id.Email, "@")
	return local
}

// UserMetadata mirrors the metadata block the service embeds in its tokens
type UserMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Claims are the access token claims
type Claims struct {
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// ErrNoSubject is returned for tokens without a user id
var ErrNoSubject = errors.New("token has no subject")

// Parse validates an HS256 access token and returns its identity.
// An empty token yields a nil identity and no error.
func Parse(token string, secret []byte) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}

	return &Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		FullName:  claims.UserMetadata.FullName,
		AvatarURL: claims.UserMetadata.AvatarURL,
	}, nil
}

// Sign issues an HS256 token for id, valid for ttl. Used against the
// local sqlite backend, where there is no hosted auth service.
func Sign(id Identity, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		UserMetadata: UserMetadata{
			FullName:  id.FullName,
			AvatarURL: id.AvatarURL,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

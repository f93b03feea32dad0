// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies the registration tokens clients send
// in a RegisterRequest (§4.10). Unlike the dashboard's per-tenant
// EdDSA key pairs, a single shared HS256 secret is enough here: a
// registration token only proves a client was handed the secret out
// of band, it does not carry per-tenant claims.
type TokenIssuer struct {
	secret []byte
	maxAge time.Duration
}

// NewTokenIssuer builds a TokenIssuer signing with secret. A zero
// maxAge means issued tokens never expire.
func NewTokenIssuer(secret []byte, maxAge time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, maxAge: maxAge}
}

// Issue signs a registration token for connectionID.
func (ti *TokenIssuer) Issue(connectionID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": connectionID,
		"iat": now.Unix(),
	}
	if ti.maxAge != 0 {
		claims["exp"] = now.Add(ti.maxAge).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

// Verify parses and validates token, returning the connection id it
// was issued for.
func (ti *TokenIssuer) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("protocol: unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("protocol: invalid registration token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("protocol: invalid registration token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("protocol: registration token missing subject")
	}
	return sub, nil
}

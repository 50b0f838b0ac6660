package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vovakirdan/snake-arena/internal/storage"
)

var errInvalidToken = errors.New("invalid token")

// tokens issues and checks session tokens. Each token's jti is also stored
// as a session row so that logout can revoke it before it expires.
type tokens struct {
	secret []byte
	ttl    time.Duration
	store  *storage.Store
	now    func() time.Time
}

func (t *tokens) issue(ctx context.Context, username string) (string, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	jti := uuid.NewString()

	claims := jwt.MapClaims{
		"sub": username,
		"jti": jti,
		"exp": exp.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("server: sign token: %w", err)
	}
	if err := t.store.CreateSession(ctx, jti, username, exp); err != nil {
		return "", err
	}
	return signed, nil
}

// claims holds what a valid token says about its bearer.
type claims struct {
	username string
	id       string
}

func (t *tokens) parse(ctx context.Context, raw string) (claims, error) {
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return claims{}, errInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return claims{}, errInvalidToken
	}
	sub, _ := mc["sub"].(string)
	jti, _ := mc["jti"].(string)
	if sub == "" || jti == "" {
		return claims{}, errInvalidToken
	}

	sess, err := t.store.ActiveSession(ctx, jti, t.now())
	if errors.Is(err, storage.ErrNotFound) {
		return claims{}, errInvalidToken
	}
	if err != nil {
		return claims{}, err
	}
	if sess.Username != sub {
		return claims{}, errInvalidToken
	}
	return claims{username: sub, id: jti}, nil
}

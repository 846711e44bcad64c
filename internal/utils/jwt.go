package utils // package utils provides helper functions for session tokens and password hashing

import (
    "errors" // errors reports malformed claims
    "time"   // time utilities for issued-at and expiry

    "github.com/golang-jwt/jwt/v5" // JWT library for signing and verifying tokens
    "github.com/google/uuid"       // uuid generates the session id (jti)
)

// ErrInvalidSession is returned by ParseSessionToken for any token that is
// absent, malformed, expired or signed with a different key.  Callers treat
// it as an anonymous request rather than an error page.
var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims is the payload of the session cookie.  Username and Role are
// the identity the handlers see; the registered ID (jti) ties the token to
// an entry in the session registry so it can be revoked.
type SessionClaims struct {
    Username string `json:"username"`
    Role     string `json:"role"`
    jwt.RegisteredClaims
}

// SessionToken is a signed token together with its session id and expiry.
// Exp is the zero time when the token carries no expiry.
type SessionToken struct {
    Token string
    ID    string
    Exp   time.Time
}

// NewSessionToken signs an HS256 token for username and role.  A positive
// ttl sets the exp claim; ttl <= 0 issues a token without expiry.
func NewSessionToken(secret, username, role string, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    claims := SessionClaims{
        Username: username,
        Role:     role,
        RegisteredClaims: jwt.RegisteredClaims{
            ID:       uuid.NewString(),
            IssuedAt: jwt.NewNumericDate(now),
        },
    }
    var exp time.Time
    if ttl > 0 {
        exp = now.Add(ttl)
        claims.ExpiresAt = jwt.NewNumericDate(exp)
    }
    // Sign with HS256; the same secret verifies in ParseSessionToken.
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, ID: claims.ID, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of raw and returns its
// claims.  Only HS256 is accepted.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
    if raw == "" {
        return SessionClaims{}, ErrInvalidSession
    }
    var claims SessionClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil || !tok.Valid {
        return SessionClaims{}, ErrInvalidSession
    }
    // A token without a username cannot identify anyone.
    if claims.Username == "" {
        return SessionClaims{}, ErrInvalidSession
    }
    return claims, nil
}

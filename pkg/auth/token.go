package auth

import (
	"crypto/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	tokenIssuer  = "licence-gateway"
	secretLength = 32
)

type sessionClaims struct {
	SessionID string `json:"sid"`
	Address   string `json:"addr"`
	jwt.RegisteredClaims
}

// TokenClaims are the verified contents of a bearer token
type TokenClaims struct {
	SessionID string
	Address   common.Address
	ExpiresAt time.Time
}

// NewTokenSigner returns an HS256 TokenSigner. An empty secret is replaced
// by a random one, so tokens do not survive a restart.
func NewTokenSigner(secret []byte) (*TokenSigner, bool, error) {
	generated := false
	if len(secret) == 0 {
		secret = make([]byte, secretLength)
		_, err := rand.Read(secret)
		if err != nil {
			return nil, false, err
		}
		generated = true
	}
	return &TokenSigner{secret: secret, now: time.Now}, generated, nil
}

// TokenSigner signs and verifies bearer tokens bound to sessions
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

// Sign returns a token for the session
func (s *TokenSigner) Sign(sessionID string, address common.Address, issuedAt time.Time,
	expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SessionID: sessionID,
		Address:   address.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   address.Hex(),
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	return token.SignedString(s.secret)
}

// Parse verifies a token and returns its claims
func (s *TokenSigner) Parse(tokenString string) (*TokenClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.SessionID == "" || !common.IsHexAddress(claims.Address) {
		return nil, errors.New("malformed token claims")
	}
	return &TokenClaims{
		SessionID: claims.SessionID,
		Address:   common.HexToAddress(claims.Address),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

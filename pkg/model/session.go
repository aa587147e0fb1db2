package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Session binds a bearer token to a single authenticated wallet address
type Session struct {
	ID        string         `json:"id"`
	Address   common.Address `json:"address"`
	IssuedAt  time.Time      `json:"issuedAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Expired returns true if the session is no longer usable at the given time
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginChallenge is a single use nonce handed out before wallet authentication
type LoginChallenge struct {
	Nonce     string         `json:"nonce"`
	Address   common.Address `json:"address"`
	Message   string         `json:"message"`
	IssuedAt  time.Time      `json:"issuedAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Expired returns true if the challenge can no longer be redeemed
func (c *LoginChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

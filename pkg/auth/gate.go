package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	messageHeader = "Sign in to the licence gateway"
	noncePrefix   = "Nonce: "
)

// ChallengeMessage returns the text a wallet signs to redeem a nonce
func ChallengeMessage(address common.Address, nonce string, issuedAt time.Time) string {
	return fmt.Sprintf("%v\n\nAccount: %v\n%v%v\nIssued At: %v", messageHeader, address.Hex(),
		noncePrefix, nonce, issuedAt.UTC().Format(time.RFC3339))
}

// NonceFromMessage returns the nonce embedded in a signed message
func NonceFromMessage(message string) (string, bool) {
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, noncePrefix) {
			nonce := strings.TrimSpace(strings.TrimPrefix(line, noncePrefix))
			return nonce, nonce != ""
		}
	}
	return "", false
}

// GateParams configures a Gate
type GateParams struct {
	Challenges   model.ChallengeStore
	Sessions     model.SessionStore
	Tokens       *TokenSigner
	NonceTTL     time.Duration
	SessionTTL   time.Duration
	RequireNonce bool
}

// NewGate returns a new Gate
func NewGate(params *GateParams) *Gate {
	return &Gate{
		challenges:   params.Challenges,
		sessions:     params.Sessions,
		tokens:       params.Tokens,
		nonceTTL:     params.NonceTTL,
		sessionTTL:   params.SessionTTL,
		requireNonce: params.RequireNonce,
		now:          time.Now,
	}
}

// Gate authenticates wallets by signature and resolves bearer tokens to
// sessions. Every failure surfaces as model.ErrUnauthenticated.
type Gate struct {
	challenges   model.ChallengeStore
	sessions     model.SessionStore
	tokens       *TokenSigner
	nonceTTL     time.Duration
	sessionTTL   time.Duration
	requireNonce bool
	now          func() time.Time
}

// SetClock replaces the clock of the gate and its token signer
func (g *Gate) SetClock(now func() time.Time) {
	g.now = now
	g.tokens.now = now
}

// Challenge mints a single use nonce for the address
func (g *Gate) Challenge(ctx context.Context, address string) (*model.LoginChallenge, error) {
	if !common.IsHexAddress(address) {
		return nil, model.ValidationError("invalid account %v", address)
	}
	account := common.HexToAddress(address)
	now := g.now()
	nonce := uuid.NewString()
	challenge := &model.LoginChallenge{
		Nonce:     nonce,
		Address:   account,
		Message:   ChallengeMessage(account, nonce, now),
		IssuedAt:  now,
		ExpiresAt: now.Add(g.nonceTTL),
	}
	err := g.challenges.SaveChallenge(ctx, challenge)
	if err != nil {
		return nil, errors.Wrap(err, "save challenge")
	}
	return challenge, nil
}

// Authenticate checks the signed message and returns a bearer token and
// its session
func (g *Gate) Authenticate(ctx context.Context, claimedAddress string, signatureHex string,
	message string) (string, *model.Session, error) {
	if !common.IsHexAddress(claimedAddress) {
		return "", nil, model.ErrUnauthenticated
	}
	account := common.HexToAddress(claimedAddress)

	// A nonce is only consumed by its account's own signature
	if !SignerMatches(claimedAddress, message, signatureHex) {
		log.Infof("Rejected login for %v: signer mismatch", account.Hex())
		return "", nil, model.ErrUnauthenticated
	}
	if g.requireNonce {
		err := g.redeemNonce(ctx, account, message)
		if err != nil {
			log.Infof("Rejected login for %v: %v", account.Hex(), err)
			return "", nil, model.ErrUnauthenticated
		}
	}

	now := g.now()
	session := &model.Session{
		ID:        uuid.NewString(),
		Address:   account,
		IssuedAt:  now,
		ExpiresAt: now.Add(g.sessionTTL),
	}
	err := g.sessions.SaveSession(ctx, session)
	if err != nil {
		return "", nil, errors.Wrap(err, "save session")
	}
	token, err := g.tokens.Sign(session.ID, account, session.IssuedAt, session.ExpiresAt)
	if err != nil {
		return "", nil, errors.Wrap(err, "sign token")
	}
	log.Infof("Authenticated %v", account.Hex())
	return token, session, nil
}

func (g *Gate) redeemNonce(ctx context.Context, account common.Address, message string) error {
	nonce, ok := NonceFromMessage(message)
	if !ok {
		return errors.New("no nonce in message")
	}
	challenge, err := g.challenges.ConsumeChallenge(ctx, nonce)
	if err != nil {
		return errors.Wrap(err, "consume nonce")
	}
	if challenge.Address != account {
		return errors.New("nonce issued to another account")
	}
	if challenge.Message != message {
		return errors.New("message differs from challenge")
	}
	return nil
}

// Resolve returns the session a bearer token belongs to
func (g *Gate) Resolve(ctx context.Context, token string) (*model.Session, error) {
	claims, err := g.tokens.Parse(token)
	if err != nil {
		return nil, model.ErrUnauthenticated
	}
	session, err := g.sessions.Session(ctx, claims.SessionID)
	if err == model.ErrPersisterNoResults {
		return nil, model.ErrUnauthenticated
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if session.Address != claims.Address || session.Expired(g.now()) {
		return nil, model.ErrUnauthenticated
	}
	return session, nil
}

// Disconnect ends the session a bearer token belongs to
func (g *Gate) Disconnect(ctx context.Context, token string) error {
	session, err := g.Resolve(ctx, token)
	if err != nil {
		return err
	}
	return g.sessions.DeleteSession(ctx, session.ID)
}

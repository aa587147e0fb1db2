// Package sessiontest runs shared behaviour tests against session stores
package sessiontest // import "github.com/w3licence/licence-gateway/pkg/session/sessiontest"

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/w3licence/licence-gateway/pkg/model"
)

// Store is a session store that also holds challenges
type Store interface {
	model.SessionStore
	model.ChallengeStore
}

// RunStoreTests runs the shared store tests against stores built by factory
func RunStoreTests(t *testing.T, factory func(t *testing.T) Store) {
	t.Run("SessionRoundTrip", func(t *testing.T) { testSessionRoundTrip(t, factory(t)) })
	t.Run("ExpiredSession", func(t *testing.T) { testExpiredSession(t, factory(t)) })
	t.Run("ChallengeSingleUse", func(t *testing.T) { testChallengeSingleUse(t, factory(t)) })
}

func testSessionRoundTrip(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now()
	address := common.HexToAddress("0xDFe273082089bB7f70Ee36Eebcde64832FE97E55")
	session := &model.Session{
		ID:        uuid.NewString(),
		Address:   address,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	err := store.SaveSession(ctx, session)
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	loaded, err := store.Session(ctx, session.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if loaded.Address != address {
		t.Errorf("Unexpected address %v", loaded.Address.Hex())
	}
	err = store.DeleteSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	_, err = store.Session(ctx, session.ID)
	if err != model.ErrPersisterNoResults {
		t.Errorf("Should have removed the session: %v", err)
	}
}

func testExpiredSession(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now()
	session := &model.Session{
		ID:        uuid.NewString(),
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	_ = store.SaveSession(ctx, session)
	_, err := store.Session(ctx, session.ID)
	if err != model.ErrPersisterNoResults {
		t.Errorf("Should not return an expired session: %v", err)
	}
}

func testChallengeSingleUse(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now()
	challenge := &model.LoginChallenge{
		Nonce:     uuid.NewString(),
		Address:   common.HexToAddress("0x39eB410144784010A1B7E5a8C0aF9E1f5a8b7E5e"),
		Message:   "Sign in",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Minute),
	}
	err := store.SaveChallenge(ctx, challenge)
	if err != nil {
		t.Fatalf("SaveChallenge: %v", err)
	}
	consumed, err := store.ConsumeChallenge(ctx, challenge.Nonce)
	if err != nil {
		t.Fatalf("ConsumeChallenge: %v", err)
	}
	if consumed.Message != "Sign in" || consumed.Address != challenge.Address {
		t.Errorf("Unexpected challenge %+v", consumed)
	}
	_, err = store.ConsumeChallenge(ctx, challenge.Nonce)
	if err != model.ErrPersisterNoResults {
		t.Errorf("Should not consume a nonce twice: %v", err)
	}
	_, err = store.ConsumeChallenge(ctx, "unknown")
	if err != model.ErrPersisterNoResults {
		t.Errorf("Should not consume an unknown nonce: %v", err)
	}
}

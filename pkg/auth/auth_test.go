package auth_test

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/w3licence/licence-gateway/pkg/auth"
	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/session"
)

func newKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

func sign(t *testing.T, key *ecdsa.PrivateKey, message string, addV bool) string {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if addV {
		sig[64] += 27
	}
	return hexutil.Encode(sig)
}

func newGate(t *testing.T, requireNonce bool) *auth.Gate {
	tokens, generated, err := auth.NewTokenSigner(nil)
	if err != nil || !generated {
		t.Fatalf("Should have generated a secret: %v", err)
	}
	store := session.NewMemoryStore()
	return auth.NewGate(&auth.GateParams{
		Challenges:   store,
		Sessions:     store,
		Tokens:       tokens,
		NonceTTL:     5 * time.Minute,
		SessionTTL:   time.Hour,
		RequireNonce: requireNonce,
	})
}

func TestRecoverPersonalSigner(t *testing.T) {
	key, address := newKey(t)
	for _, addV := range []bool{false, true} {
		recovered, err := auth.RecoverPersonalSigner("hello", sign(t, key, "hello", addV))
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if recovered != address {
			t.Errorf("Recovered %v, expected %v", recovered.Hex(), address.Hex())
		}
	}
	_, err := auth.RecoverPersonalSigner("hello", "0x1234")
	if err == nil {
		t.Errorf("Should have rejected a short signature")
	}
}

func TestSignerMatchesIgnoresCase(t *testing.T) {
	key, address := newKey(t)
	sig := sign(t, key, "hello", true)
	if !auth.SignerMatches(strings.ToLower(address.Hex()), "hello", sig) {
		t.Errorf("Should match a lower cased address")
	}
	if !auth.SignerMatches("0x"+strings.ToUpper(address.Hex()[2:]), "hello", sig) {
		t.Errorf("Should match an upper cased address")
	}
	_, other := newKey(t)
	if auth.SignerMatches(other.Hex(), "hello", sig) {
		t.Errorf("Should not match another address")
	}
	if auth.SignerMatches(address.Hex(), "hello!", sig) {
		t.Errorf("Should not match another message")
	}
}

func TestNonceLogin(t *testing.T) {
	ctx := context.Background()
	gate := newGate(t, true)
	key, address := newKey(t)

	challenge, err := gate.Challenge(ctx, address.Hex())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	nonce, ok := auth.NonceFromMessage(challenge.Message)
	if !ok || nonce != challenge.Nonce {
		t.Errorf("Message should embed the nonce: %v", challenge.Message)
	}
	sig := sign(t, key, challenge.Message, true)
	token, sess, err := gate.Authenticate(ctx, address.Hex(), sig, challenge.Message)
	if err != nil {
		t.Fatalf("Should have authenticated: err: %v", err)
	}
	if sess.Address != address {
		t.Errorf("Session should be bound to the signer")
	}
	resolved, err := gate.Resolve(ctx, token)
	if err != nil || resolved.Address != address {
		t.Errorf("Should have resolved the token: %v", err)
	}

	_, _, err = gate.Authenticate(ctx, address.Hex(), sig, challenge.Message)
	if err != model.ErrUnauthenticated {
		t.Errorf("Should not accept a replayed nonce: %v", err)
	}

	err = gate.Disconnect(ctx, token)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	_, err = gate.Resolve(ctx, token)
	if err != model.ErrUnauthenticated {
		t.Errorf("Should not resolve a disconnected token: %v", err)
	}
}

func TestNonceBoundToAccount(t *testing.T) {
	ctx := context.Background()
	gate := newGate(t, true)
	_, victim := newKey(t)
	attackerKey, attacker := newKey(t)

	challenge, _ := gate.Challenge(ctx, victim.Hex())
	sig := sign(t, attackerKey, challenge.Message, false)
	_, _, err := gate.Authenticate(ctx, attacker.Hex(), sig, challenge.Message)
	if err != model.ErrUnauthenticated {
		t.Errorf("Should not redeem a nonce issued to another account: %v", err)
	}

	_, _, err = gate.Authenticate(ctx, attacker.Hex(), sign(t, attackerKey, "no nonce", false), "no nonce")
	if err != model.ErrUnauthenticated {
		t.Errorf("Should require a nonce: %v", err)
	}
}

func TestBadSignatureKeepsNonce(t *testing.T) {
	ctx := context.Background()
	gate := newGate(t, true)
	key, address := newKey(t)
	otherKey, _ := newKey(t)

	challenge, err := gate.Challenge(ctx, address.Hex())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	_, _, err = gate.Authenticate(ctx, address.Hex(), sign(t, otherKey, challenge.Message, true), challenge.Message)
	if err != model.ErrUnauthenticated {
		t.Errorf("Should have rejected a signature from another key: %v", err)
	}
	_, _, err = gate.Authenticate(ctx, address.Hex(), "0x1234", challenge.Message)
	if err != model.ErrUnauthenticated {
		t.Errorf("Should have rejected a malformed signature: %v", err)
	}

	_, sess, err := gate.Authenticate(ctx, address.Hex(), sign(t, key, challenge.Message, true), challenge.Message)
	if err != nil {
		t.Fatalf("Failed signatures should not have used up the nonce: err: %v", err)
	}
	if sess.Address != address {
		t.Errorf("Session should be bound to the signer")
	}
}

func TestLegacyLoginWithoutNonce(t *testing.T) {
	ctx := context.Background()
	gate := newGate(t, false)
	key, address := newKey(t)
	_, other := newKey(t)
	sig := sign(t, key, "any message", true)

	_, _, err := gate.Authenticate(ctx, other.Hex(), sig, "any message")
	if err != model.ErrUnauthenticated {
		t.Errorf("Should reject a mismatched signer: %v", err)
	}
	token, _, err := gate.Authenticate(ctx, address.Hex(), sig, "any message")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	sess, _ := gate.Resolve(ctx, token)
	if sess == nil || sess.Address != address {
		t.Errorf("Token should resolve to the signer only")
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	gate := newGate(t, false)
	_, err := gate.Resolve(ctx, "not.a.token")
	if err != model.ErrUnauthenticated {
		t.Errorf("Should reject garbage: %v", err)
	}

	otherSigner, _, _ := auth.NewTokenSigner([]byte("other-secret"))
	_, address := newKey(t)
	forged, _ := otherSigner.Sign("sid", address, time.Now(), time.Now().Add(time.Hour))
	_, err = gate.Resolve(ctx, forged)
	if err != model.ErrUnauthenticated {
		t.Errorf("Should reject a token signed with another secret: %v", err)
	}

	key, address := newKey(t)
	token, _, _ := gate.Authenticate(ctx, address.Hex(), sign(t, key, "m", false), "m")
	gate.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = gate.Resolve(ctx, token)
	if err != model.ErrUnauthenticated {
		t.Errorf("Should reject an expired token: %v", err)
	}
}

func TestChallengeRejectsInvalidAddress(t *testing.T) {
	gate := newGate(t, true)
	_, err := gate.Challenge(context.Background(), "0x123")
	if err == nil {
		t.Errorf("Should have rejected an invalid address")
	}
}

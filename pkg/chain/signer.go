package chain

import (
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/w3licence/licence-gateway/pkg/model"
)

// SignerProvider resolves the signing credential used for writes on behalf of
// a wallet address
type SignerProvider interface {
	// TransactOpts returns keyed transact opts for writes made on behalf of from
	TransactOpts(from common.Address, chainID *big.Int) (*bind.TransactOpts, error)
	// Issuer returns the platform account that issues licences
	Issuer() common.Address
}

// NewRelayerSigner returns a SignerProvider that signs every write with a
// single platform key
func NewRelayerSigner(hexKey string) (*RelayerSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid relayer private key")
	}
	return &RelayerSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// RelayerSigner signs all writes with one platform key. Registry ownership
// then refers to the platform account rather than the caller.
type RelayerSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// TransactOpts implements SignerProvider
func (r *RelayerSigner) TransactOpts(from common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(r.key, chainID)
}

// Issuer implements SignerProvider
func (r *RelayerSigner) Issuer() common.Address {
	return r.address
}

// NewKeystoreSigners returns a SignerProvider backed by custodial accounts in
// a go-ethereum keystore directory. All accounts share one passphrase.
func NewKeystoreSigners(keystoreDir string, passphrase string, issuer common.Address) (*KeystoreSigners, error) {
	ks := keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
	if !ks.HasAddress(issuer) {
		return nil, errors.Errorf("issuer account %v not found in keystore %v", issuer.Hex(), keystoreDir)
	}
	return &KeystoreSigners{
		ks:         ks,
		passphrase: passphrase,
		issuer:     issuer,
		unlocked:   map[common.Address]bool{},
	}, nil
}

// KeystoreSigners signs writes with the custodial account of the caller
type KeystoreSigners struct {
	ks         *keystore.KeyStore
	passphrase string
	issuer     common.Address

	mu       sync.Mutex
	unlocked map[common.Address]bool
}

// TransactOpts implements SignerProvider
func (k *KeystoreSigners) TransactOpts(from common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	account, err := k.ks.Find(accounts.Account{Address: from})
	if err != nil {
		return nil, model.ValidationError("no signing account for %v", from.Hex())
	}
	k.mu.Lock()
	if !k.unlocked[from] {
		err = k.ks.Unlock(account, k.passphrase)
		if err != nil {
			k.mu.Unlock()
			return nil, errors.Wrapf(err, "unable to unlock account %v", from.Hex())
		}
		k.unlocked[from] = true
	}
	k.mu.Unlock()
	return bind.NewKeyStoreTransactorWithChainID(k.ks, account, chainID)
}

// Issuer implements SignerProvider
func (k *KeystoreSigners) Issuer() common.Address {
	return k.issuer
}

// Package auth contains the wallet signature authentication gate
package auth // import "github.com/w3licence/licence-gateway/pkg/auth"

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// RecoverPersonalSigner returns the address that produced an EIP-191
// personal_sign signature over message. v may be 0/1 or 27/28.
func RecoverPersonalSigner(message string, signatureHex string) (common.Address, error) {
	signature, err := hexutil.Decode(strings.TrimSpace(signatureHex))
	if err != nil {
		return common.Address{}, errors.Wrap(err, "decode signature")
	}
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, errors.Errorf("invalid signature length: %d", len(signature))
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	v := sig[crypto.RecoveryIDOffset]
	if v == 27 || v == 28 {
		v -= 27
	}
	if v != 0 && v != 1 {
		return common.Address{}, errors.Errorf("invalid signature v: %d", sig[crypto.RecoveryIDOffset])
	}
	sig[crypto.RecoveryIDOffset] = v

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SignerMatches returns true if the signature over message was produced
// by claimedAddress. Hex case is ignored.
func SignerMatches(claimedAddress string, message string, signatureHex string) bool {
	if !common.IsHexAddress(claimedAddress) {
		return false
	}
	recovered, err := RecoverPersonalSigner(message, signatureHex)
	if err != nil {
		return false
	}
	return strings.EqualFold(recovered.Hex(), common.HexToAddress(claimedAddress).Hex())
}

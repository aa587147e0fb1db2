package chain

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	executionReverted = "execution reverted"
)

// RevertReasonFromError extracts the revert reason from an error returned by a
// node. The boolean is false if the error is not a revert.
func RevertReasonFromError(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason, ok := revertReasonFromData(dataErr.ErrorData()); ok {
			return reason, true
		}
	}
	msg := err.Error()
	idx := strings.Index(msg, executionReverted)
	if idx < 0 {
		return "", false
	}
	reason := strings.TrimPrefix(msg[idx+len(executionReverted):], ":")
	return strings.TrimSpace(reason), true
}

func revertReasonFromData(data interface{}) (string, bool) {
	str, ok := data.(string)
	if !ok {
		return "", false
	}
	raw, err := hexutil.Decode(str)
	if err != nil {
		return "", false
	}
	reason, err := abi.UnpackRevert(raw)
	if err != nil {
		return "", false
	}
	return reason, true
}

// wrapSendError converts reverts into model.ChainTransactionError and leaves
// other failures wrapped as is
func wrapSendError(err error, method string) error {
	if reason, ok := RevertReasonFromError(err); ok {
		return model.NewChainTransactionError(reason)
	}
	return errors.Wrapf(err, "error sending %v", method)
}

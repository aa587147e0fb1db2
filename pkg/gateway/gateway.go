// Package gateway contains the content and licence operations exposed to
// authenticated wallets
package gateway // import "github.com/w3licence/licence-gateway/pkg/gateway"

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/golang/glog"

	"github.com/w3licence/licence-gateway/pkg/model"
)

type sendFn func(ctx context.Context) (model.PendingTx, error)

// submit broadcasts a registry write, records its hash on the job and
// waits for it to be mined
func submit(ctx context.Context, record func(hash common.Hash), send sendFn) (model.PendingTx, error) {
	tx, err := send(ctx)
	if err != nil {
		return nil, err
	}
	record(tx.Hash())
	err = tx.Wait(ctx)
	if err != nil {
		return tx, err
	}
	return tx, nil
}

func publish(ctx context.Context, publisher model.EventPublisher, event *model.GatewayEvent) {
	if publisher == nil {
		return
	}
	err := publisher.Publish(ctx, event)
	if err != nil {
		log.Errorf("Error publishing %v event for %v: err: %v", event.Type, event.CID, err)
	}
}

func requireCID(cid string) (string, error) {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return "", model.ValidationError("cid required")
	}
	return cid, nil
}

func requireSession(session *model.Session) error {
	if session == nil {
		return model.ErrUnauthenticated
	}
	return nil
}

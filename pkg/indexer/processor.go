// Package indexer keeps the secondary content index in step with the
// registry and turns registry events into gateway events
package indexer // import "github.com/w3licence/licence-gateway/pkg/indexer"

import (
	"context"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/contracts"
	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	payloadCIDField  = "CID"
	payloadUserField = "user"

	// EventSourceChain marks gateway events derived from registry logs
	EventSourceChain = "chain"
)

// NewEventProcessor is a convenience function to init an EventProcessor
func NewEventProcessor(registry model.ContentRegistry, index model.ContentIndexPersister,
	publisher model.EventPublisher) *EventProcessor {
	return &EventProcessor{
		registry:  registry,
		index:     index,
		publisher: publisher,
	}
}

// EventProcessor handles the processing of registry events into the
// content index and gateway events
type EventProcessor struct {
	registry  model.ContentRegistry
	index     model.ContentIndexPersister
	publisher model.EventPublisher
}

// Process runs the processor with the given set of registry events
// Returns the last error if one has occurred
func (e *EventProcessor) Process(ctx context.Context, events []*model.RegistryEvent) error {
	var err error
	for _, event := range events {
		if log.V(2) {
			log.Infof("Processing %v from %v: %v", event.EventType(), event.ContractName(), spew.Sdump(event.Payload()))
		}
		switch event.ContractName() {
		case contracts.ContentManagerContractName:
			err = e.processContentManagerEvent(ctx, event)
			if err != nil {
				log.Errorf("Error processing content manager event: err: %v\n", err)
			}
		case contracts.LicenceManagerContractName:
			err = e.processLicenceManagerEvent(ctx, event)
			if err != nil {
				log.Errorf("Error processing licence manager event: err: %v\n", err)
			}
		default:
			log.Infof("Skipping event from unknown contract %v", event.ContractName())
		}
	}
	return err
}

func (e *EventProcessor) processContentManagerEvent(ctx context.Context, event *model.RegistryEvent) error {
	if !contracts.IsValidContentManagerEventName(event.EventType()) {
		return errors.Errorf("unknown content manager event %v", event.EventType())
	}
	switch event.EventType() {
	case "ContentAdded", "ContentUpdated":
		cid, ok := event.Payload().String(payloadCIDField)
		if !ok {
			return errors.Errorf("%v without a CID in %v", event.EventType(), event.TxHash().Hex())
		}
		return e.reindex(ctx, cid)
	case "PlatformFeeChanged":
		fee, _ := event.Payload().BigInt("fee")
		log.Infof("Platform fee changed to %v at block %v", fee, event.BlockNumber())
	}
	return nil
}

func (e *EventProcessor) reindex(ctx context.Context, cid string) error {
	content, err := e.registry.Content(ctx, cid)
	if err != nil {
		return errors.Wrapf(err, "reading %v", cid)
	}
	return e.index.UpsertIndexedContent(content)
}

func (e *EventProcessor) processLicenceManagerEvent(ctx context.Context, event *model.RegistryEvent) error {
	if !contracts.IsValidLicenceManagerEventName(event.EventType()) {
		return errors.Errorf("unknown licence manager event %v", event.EventType())
	}
	cid, _ := event.Payload().String(payloadCIDField)
	user, _ := event.Payload().Address(payloadUserField)

	var eventType model.GatewayEventType
	switch event.EventType() {
	case "LicenceIssued":
		eventType = model.GatewayEventLicenceIssued
	case "LicenceRevoked":
		eventType = model.GatewayEventLicenceRevoked
	case "PaymentReceived":
		// usage counts live on the content record
		return e.reindex(ctx, cid)
	default:
		return nil
	}
	if e.publisher == nil {
		return nil
	}
	gatewayEvent := model.NewGatewayEvent(eventType, user, cid, event.TxHash())
	gatewayEvent.Data["source"] = EventSourceChain
	gatewayEvent.Data["blockNumber"] = strconv.FormatUint(event.BlockNumber(), 10)
	if expiry, ok := event.Payload().BigInt("expiryDate"); ok {
		gatewayEvent.Data["expiryDate"] = expiry.String()
	}
	return e.publisher.Publish(ctx, gatewayEvent)
}

package model

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventPayload holds the decoded arguments of a registry event keyed by
// their ABI names
type EventPayload map[string]interface{}

// RegistryEventParams are the params to initialize a new RegistryEvent
type RegistryEventParams struct {
	EventType       string
	ContractName    string
	ContractAddress common.Address
	Payload         EventPayload
	BlockNumber     uint64
	TxHash          common.Hash
	LogIndex        uint
}

// NewRegistryEvent is a convenience method to init a RegistryEvent
func NewRegistryEvent(params *RegistryEventParams) *RegistryEvent {
	payload := params.Payload
	if payload == nil {
		payload = EventPayload{}
	}
	return &RegistryEvent{
		eventType:       params.EventType,
		contractName:    params.ContractName,
		contractAddress: params.ContractAddress,
		payload:         payload,
		blockNumber:     params.BlockNumber,
		txHash:          params.TxHash,
		logIndex:        params.LogIndex,
	}
}

// RegistryEvent is a decoded log emitted by one of the registry contracts
type RegistryEvent struct {
	eventType string

	contractName string

	contractAddress common.Address

	payload EventPayload

	blockNumber uint64

	txHash common.Hash

	logIndex uint
}

// EventType returns the ABI event name
func (e *RegistryEvent) EventType() string {
	return e.eventType
}

// ContractName returns the name of the emitting contract
func (e *RegistryEvent) ContractName() string {
	return e.contractName
}

// ContractAddress returns the address of the emitting contract
func (e *RegistryEvent) ContractAddress() common.Address {
	return e.contractAddress
}

// Payload returns the decoded event arguments
func (e *RegistryEvent) Payload() EventPayload {
	return e.payload
}

// BlockNumber returns the block the event was mined in
func (e *RegistryEvent) BlockNumber() uint64 {
	return e.blockNumber
}

// TxHash returns the hash of the emitting transaction
func (e *RegistryEvent) TxHash() common.Hash {
	return e.txHash
}

// LogIndex returns the index of the log within the block
func (e *RegistryEvent) LogIndex() uint {
	return e.logIndex
}

// Hash returns an identifier unique to the log
func (e *RegistryEvent) Hash() string {
	return fmt.Sprintf("%v:%v", e.txHash.Hex(), e.logIndex)
}

// String returns the string field of the payload with the given key
func (p EventPayload) String(key string) (string, bool) {
	val, ok := p[key]
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// Address returns the address field of the payload with the given key
func (p EventPayload) Address(key string) (common.Address, bool) {
	val, ok := p[key]
	if !ok {
		return common.Address{}, false
	}
	addr, ok := val.(common.Address)
	return addr, ok
}

// BigInt returns the uint256 field of the payload with the given key
func (p EventPayload) BigInt(key string) (*big.Int, bool) {
	val, ok := p[key]
	if !ok {
		return nil, false
	}
	num, ok := val.(*big.Int)
	return num, ok
}

// GatewayEventType is the type of a notification published by the gateway
type GatewayEventType string

const (
	// GatewayEventContentRegistered is published after content registration confirms
	GatewayEventContentRegistered GatewayEventType = "ContentRegistered"
	// GatewayEventContentUpdated is published when indexed content changes
	GatewayEventContentUpdated GatewayEventType = "ContentUpdated"
	// GatewayEventLicenceIssued is published after a licence is issued
	GatewayEventLicenceIssued GatewayEventType = "LicenceIssued"
	// GatewayEventLicenceRevoked is published after a licence is revoked
	GatewayEventLicenceRevoked GatewayEventType = "LicenceRevoked"
	// GatewayEventPaymentRefundDue is published when issuance for a payment gave up
	GatewayEventPaymentRefundDue GatewayEventType = "PaymentRefundDue"
)

// GatewayEvent is a notification about a state change observed by the gateway
type GatewayEvent struct {
	Type      GatewayEventType  `json:"type"`
	Address   string            `json:"address,omitempty"`
	CID       string            `json:"cid,omitempty"`
	TxHash    string            `json:"txHash,omitempty"`
	Timestamp int64             `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}

// NewGatewayEvent returns a GatewayEvent stamped with the current time
func NewGatewayEvent(eventType GatewayEventType, address common.Address, cid string,
	txHash common.Hash) *GatewayEvent {
	event := &GatewayEvent{
		Type:      eventType,
		CID:       cid,
		Timestamp: time.Now().UTC().Unix(),
		Data:      map[string]string{},
	}
	if address != (common.Address{}) {
		event.Address = address.Hex()
	}
	if txHash != (common.Hash{}) {
		event.TxHash = txHash.Hex()
	}
	return event
}

// Package simulated contains an in-process registry that follows the rules of
// the ContentManager and LicenceManager contracts. It backs local development
// and tests.
package simulated // import "github.com/w3licence/licence-gateway/pkg/chain/simulated"

import (
	"context"
	"encoding/binary"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/w3licence/licence-gateway/pkg/contracts"
	"github.com/w3licence/licence-gateway/pkg/model"
)

// Revert reasons returned by the registry
const (
	ReasonContentExists       = "Content is already on the platform!"
	ReasonContentNotFound     = "Content not found!"
	ReasonContentUnavailable  = "Content is not available"
	ReasonInvalidPrice        = "Price must be greater than 0"
	ReasonInsufficientFee     = "Insufficient platform fee"
	ReasonNotCreator          = "Only the creator can modify content"
	ReasonNotOwner            = "Only the owner can change the fee"
	ReasonNotIssuer           = "Only the owner can issue licences"
	ReasonInsufficientPayment = "Insufficient payment"
	ReasonLicenceNotPaid      = "Licence not paid for"
	ReasonInvalidDuration     = "Duration must be greater than 0"
	ReasonNoValidLicence      = "No valid licence found"
	ReasonAlreadyPaid         = "Licence already paid for"
)

const (
	contentManagerAddressString = "0x00000000000000000000000000000000000c0de1"
	licenceManagerAddressString = "0x00000000000000000000000000000000000c0de2"
)

var (
	// ContentManagerAddress is the address events of the simulated content registry carry
	ContentManagerAddress = common.HexToAddress(contentManagerAddressString)
	// LicenceManagerAddress is the address events of the simulated licence registry carry
	LicenceManagerAddress = common.HexToAddress(licenceManagerAddressString)
)

// Option configures a Registry
type Option func(r *Registry)

// WithClock sets the time source used for licence issue dates
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithIssuer sets the account licences are issued from. It defaults to the
// owner; any other account has its issues reverted.
func WithIssuer(issuer common.Address) Option {
	return func(r *Registry) {
		r.issuer = issuer
	}
}

// NewRegistry returns an empty registry owned by owner with the given platform fee
func NewRegistry(owner common.Address, platformFee *big.Int, opts ...Option) *Registry {
	r := &Registry{
		owner:        owner,
		issuer:       owner,
		platformFee:  new(big.Int).Set(platformFee),
		contents:     map[string]*contentRecord{},
		payments:     map[string]*big.Int{},
		licences:     map[common.Address]map[string]*licenceRecord{},
		licenceOrder: map[common.Address][]string{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type contentRecord struct {
	creator    common.Address
	price      *big.Int
	usageCount *big.Int
	cid        string
	title      string
	available  bool
}

type licenceRecord struct {
	issueDate  int64
	expiryDate int64
	cid        string
	holder     common.Address
	isValid    bool
}

// Registry implements model.ContentRegistry, model.LicenceRegistry and
// model.EventSource in memory. Writes execute when submitted, so a revert is
// returned by the submitting call and Wait always succeeds.
type Registry struct {
	mu sync.RWMutex

	owner       common.Address
	issuer      common.Address
	platformFee *big.Int

	contents     map[string]*contentRecord
	contentOrder []string

	// pending payments keyed by holder/cid
	payments map[string]*big.Int

	licences     map[common.Address]map[string]*licenceRecord
	licenceOrder map[common.Address][]string

	block  uint64
	events []*model.RegistryEvent

	now func() time.Time
}

type minedTx struct {
	hash common.Hash
}

func (m *minedTx) Hash() common.Hash {
	return m.hash
}

func (m *minedTx) Wait(ctx context.Context) error {
	return nil
}

func revert(reason string) error {
	return model.NewChainTransactionError(reason)
}

// mine advances the block and returns the transaction hash. Caller holds the lock.
func (r *Registry) mine(from common.Address, method string) common.Hash {
	r.block++
	blockBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(blockBytes, r.block)
	return crypto.Keccak256Hash(blockBytes, from.Bytes(), []byte(method))
}

// emit appends an event to the log. Caller holds the lock.
func (r *Registry) emit(contractName string, eventType string, txHash common.Hash,
	payload model.EventPayload) {
	address := ContentManagerAddress
	if contractName == contracts.LicenceManagerContractName {
		address = LicenceManagerAddress
	}
	r.events = append(r.events, model.NewRegistryEvent(&model.RegistryEventParams{
		EventType:       eventType,
		ContractName:    contractName,
		ContractAddress: address,
		Payload:         payload,
		BlockNumber:     r.block,
		TxHash:          txHash,
		LogIndex:        uint(len(r.events)),
	}))
}

// PlatformFee implements model.ContentRegistry
func (r *Registry) PlatformFee(ctx context.Context) (*big.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return new(big.Int).Set(r.platformFee), nil
}

// Owner implements model.ContentRegistry
func (r *Registry) Owner(ctx context.Context) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner, nil
}

// Content implements model.ContentRegistry
func (r *Registry) Content(ctx context.Context, cid string) (*model.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.contents[cid]
	if !ok {
		return nil, model.ErrContentNotFound
	}
	return record.toModel(), nil
}

// AllContents implements model.ContentRegistry
func (r *Registry) AllContents(ctx context.Context) ([]*model.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	contents := make([]*model.Content, len(r.contentOrder))
	for i, cid := range r.contentOrder {
		contents[i] = r.contents[cid].toModel()
	}
	return contents, nil
}

// AddContent implements model.ContentRegistry
func (r *Registry) AddContent(ctx context.Context, from common.Address, price *big.Int, cid string,
	title string, fee *big.Int) (model.PendingTx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contents[cid]; ok {
		return nil, revert(ReasonContentExists)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, revert(ReasonInvalidPrice)
	}
	if fee == nil || fee.Cmp(r.platformFee) < 0 {
		return nil, revert(ReasonInsufficientFee)
	}
	r.contents[cid] = &contentRecord{
		creator:    from,
		price:      new(big.Int).Set(price),
		usageCount: big.NewInt(0),
		cid:        cid,
		title:      title,
		available:  true,
	}
	r.contentOrder = append(r.contentOrder, cid)
	hash := r.mine(from, "addContent")
	r.emit(contracts.ContentManagerContractName, "ContentAdded", hash, model.EventPayload{
		"creator": from,
		"CID":     cid,
	})
	return &minedTx{hash: hash}, nil
}

func (r *Registry) updateContent(from common.Address, cid string, method string,
	update func(record *contentRecord)) (model.PendingTx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.contents[cid]
	if !ok {
		return nil, revert(ReasonContentNotFound)
	}
	if record.creator != from {
		return nil, revert(ReasonNotCreator)
	}
	update(record)
	hash := r.mine(from, method)
	r.emit(contracts.ContentManagerContractName, "ContentUpdated", hash, model.EventPayload{
		"creator": from,
		"CID":     cid,
	})
	return &minedTx{hash: hash}, nil
}

// SetUnavailable implements model.ContentRegistry
func (r *Registry) SetUnavailable(ctx context.Context, from common.Address, cid string) (model.PendingTx, error) {
	return r.updateContent(from, cid, "setUnavailableContent", func(record *contentRecord) {
		record.available = false
	})
}

// SetTitle implements model.ContentRegistry
func (r *Registry) SetTitle(ctx context.Context, from common.Address, cid string, title string) (model.PendingTx, error) {
	return r.updateContent(from, cid, "setTitle", func(record *contentRecord) {
		record.title = title
	})
}

// SetPrice implements model.ContentRegistry
func (r *Registry) SetPrice(ctx context.Context, from common.Address, cid string, price *big.Int) (model.PendingTx, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, revert(ReasonInvalidPrice)
	}
	return r.updateContent(from, cid, "setPrice", func(record *contentRecord) {
		record.price = new(big.Int).Set(price)
	})
}

// SetPlatformFee implements model.ContentRegistry
func (r *Registry) SetPlatformFee(ctx context.Context, from common.Address, fee *big.Int) (model.PendingTx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if from != r.owner {
		return nil, revert(ReasonNotOwner)
	}
	r.platformFee = new(big.Int).Set(fee)
	hash := r.mine(from, "setPlatformFee")
	r.emit(contracts.ContentManagerContractName, "PlatformFeeChanged", hash, model.EventPayload{
		"fee": new(big.Int).Set(fee),
	})
	return &minedTx{hash: hash}, nil
}

// Pay implements model.LicenceRegistry
func (r *Registry) Pay(ctx context.Context, from common.Address, cid string, amount *big.Int) (model.PendingTx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.contents[cid]
	if !ok {
		return nil, revert(ReasonContentNotFound)
	}
	if !record.available {
		return nil, revert(ReasonContentUnavailable)
	}
	if amount == nil || amount.Cmp(record.price) < 0 {
		return nil, revert(ReasonInsufficientPayment)
	}
	key := model.PaymentKey(from, cid)
	if _, ok := r.payments[key]; ok {
		return nil, revert(ReasonAlreadyPaid)
	}
	r.payments[key] = new(big.Int).Set(amount)
	record.usageCount.Add(record.usageCount, big.NewInt(1))
	hash := r.mine(from, "pay")
	r.emit(contracts.LicenceManagerContractName, "PaymentReceived", hash, model.EventPayload{
		"user":   from,
		"CID":    cid,
		"amount": new(big.Int).Set(amount),
	})
	return &minedTx{hash: hash}, nil
}

// IssueLicence implements model.LicenceRegistry. Only the owner may issue.
func (r *Registry) IssueLicence(ctx context.Context, holder common.Address, cid string,
	durationSecs int64) (model.PendingTx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.issuer != r.owner {
		return nil, revert(ReasonNotIssuer)
	}
	if _, ok := r.contents[cid]; !ok {
		return nil, revert(ReasonContentNotFound)
	}
	if durationSecs <= 0 {
		return nil, revert(ReasonInvalidDuration)
	}
	key := model.PaymentKey(holder, cid)
	if _, ok := r.payments[key]; !ok {
		return nil, revert(ReasonLicenceNotPaid)
	}
	delete(r.payments, key)

	issueDate := r.now().Unix()
	licence := &licenceRecord{
		issueDate:  issueDate,
		expiryDate: issueDate + durationSecs,
		cid:        cid,
		holder:     holder,
		isValid:    true,
	}
	held, ok := r.licences[holder]
	if !ok {
		held = map[string]*licenceRecord{}
		r.licences[holder] = held
	}
	if _, renewed := held[cid]; !renewed {
		r.licenceOrder[holder] = append(r.licenceOrder[holder], cid)
	}
	held[cid] = licence

	hash := r.mine(r.issuer, "issueLicence")
	r.emit(contracts.LicenceManagerContractName, "LicenceIssued", hash, model.EventPayload{
		"user":       holder,
		"CID":        cid,
		"expiryDate": big.NewInt(licence.expiryDate),
	})
	return &minedTx{hash: hash}, nil
}

// RevokeLicence implements model.LicenceRegistry
func (r *Registry) RevokeLicence(ctx context.Context, from common.Address, cid string) (model.PendingTx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	licence, ok := r.licences[from][cid]
	if !ok || !licence.isValid {
		return nil, revert(ReasonNoValidLicence)
	}
	licence.isValid = false
	hash := r.mine(from, "revokeLicence")
	r.emit(contracts.LicenceManagerContractName, "LicenceRevoked", hash, model.EventPayload{
		"user": from,
		"CID":  cid,
	})
	return &minedTx{hash: hash}, nil
}

// Licence implements model.LicenceRegistry
func (r *Registry) Licence(ctx context.Context, holder common.Address, cid string) (*model.Licence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	licence, ok := r.licences[holder][cid]
	if !ok {
		return model.NewLicence(&model.LicenceParams{CID: cid, Holder: holder}), nil
	}
	return licence.toModel(), nil
}

// LicencesForUser implements model.LicenceRegistry
func (r *Registry) LicencesForUser(ctx context.Context, holder common.Address) ([]*model.Licence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cids := r.licenceOrder[holder]
	licences := make([]*model.Licence, len(cids))
	for i, cid := range cids {
		licences[i] = r.licences[holder][cid].toModel()
	}
	return licences, nil
}

// HasPayment returns true if a payment for (holder, cid) awaits issuance
func (r *Registry) HasPayment(holder common.Address, cid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.payments[model.PaymentKey(holder, cid)]
	return ok
}

// LatestBlock implements model.EventSource
func (r *Registry) LatestBlock(ctx context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.block, nil
}

// EventsInRange implements model.EventSource
func (r *Registry) EventsInRange(ctx context.Context, from uint64, to uint64) ([]*model.RegistryEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := []*model.RegistryEvent{}
	for _, event := range r.events {
		if event.BlockNumber() >= from && event.BlockNumber() <= to {
			events = append(events, event)
		}
	}
	return events, nil
}

func (c *contentRecord) toModel() *model.Content {
	return model.NewContent(&model.ContentParams{
		Creator:    c.creator,
		Price:      c.price,
		UsageCount: c.usageCount,
		CID:        c.cid,
		Title:      c.title,
		Available:  c.available,
	})
}

func (l *licenceRecord) toModel() *model.Licence {
	return model.NewLicence(&model.LicenceParams{
		IssueDate:  l.issueDate,
		ExpiryDate: l.expiryDate,
		CID:        l.cid,
		Holder:     l.holder,
		IsValid:    l.isValid,
	})
}

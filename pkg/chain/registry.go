package chain

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/w3licence/licence-gateway/pkg/contracts"
	"github.com/w3licence/licence-gateway/pkg/model"
)

// EthRegistryParams are the params to initialize an EthRegistry
type EthRegistryParams struct {
	Backend               Backend
	Signers               SignerProvider
	ChainID               *big.Int
	ContentManagerAddress common.Address
	LicenceManagerAddress common.Address
}

// NewEthRegistry binds the registry contracts at the given addresses
func NewEthRegistry(params *EthRegistryParams) (*EthRegistry, error) {
	contentManager, err := contracts.NewContentManager(params.ContentManagerAddress, params.Backend)
	if err != nil {
		return nil, errors.Wrap(err, "error binding ContentManager")
	}
	licenceManager, err := contracts.NewLicenceManager(params.LicenceManagerAddress, params.Backend)
	if err != nil {
		return nil, errors.Wrap(err, "error binding LicenceManager")
	}
	return &EthRegistry{
		transactor:     NewTransactor(params.Backend, params.Signers, params.ChainID),
		signers:        params.Signers,
		contentManager: contentManager,
		licenceManager: licenceManager,
	}, nil
}

// EthRegistry implements model.ContentRegistry and model.LicenceRegistry
// against the deployed contracts
type EthRegistry struct {
	transactor     *Transactor
	signers        SignerProvider
	contentManager *contracts.ContentManager
	licenceManager *contracts.LicenceManager
}

func callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

// PlatformFee implements model.ContentRegistry
func (r *EthRegistry) PlatformFee(ctx context.Context) (*big.Int, error) {
	fee, err := r.contentManager.GetPlatformFee(callOpts(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "error retrieving platform fee")
	}
	return fee, nil
}

// Owner implements model.ContentRegistry
func (r *EthRegistry) Owner(ctx context.Context) (common.Address, error) {
	owner, err := r.contentManager.Owner(callOpts(ctx))
	if err != nil {
		return common.Address{}, errors.Wrap(err, "error retrieving registry owner")
	}
	return owner, nil
}

// Content implements model.ContentRegistry
func (r *EthRegistry) Content(ctx context.Context, cid string) (*model.Content, error) {
	record, err := r.contentManager.GetContent(callOpts(ctx), cid)
	if err != nil {
		if _, reverted := RevertReasonFromError(err); reverted {
			return nil, model.ErrContentNotFound
		}
		return nil, errors.Wrapf(err, "error retrieving content %v", cid)
	}
	content := contentFromBinding(record)
	if !content.Exists() {
		return nil, model.ErrContentNotFound
	}
	return content, nil
}

// AllContents implements model.ContentRegistry
func (r *EthRegistry) AllContents(ctx context.Context) ([]*model.Content, error) {
	records, err := r.contentManager.GetAllContentDetails(callOpts(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "error retrieving all content")
	}
	contents := make([]*model.Content, 0, len(records))
	for _, record := range records {
		content := contentFromBinding(record)
		if content.Exists() {
			contents = append(contents, content)
		}
	}
	return contents, nil
}

// AddContent implements model.ContentRegistry
func (r *EthRegistry) AddContent(ctx context.Context, from common.Address, price *big.Int, cid string,
	title string, fee *big.Int) (model.PendingTx, error) {
	return r.transactor.Send(ctx, from, fee, "addContent", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return r.contentManager.AddContent(opts, price, cid, title)
	})
}

// SetUnavailable implements model.ContentRegistry
func (r *EthRegistry) SetUnavailable(ctx context.Context, from common.Address, cid string) (model.PendingTx, error) {
	return r.transactor.Send(ctx, from, nil, "setUnavailableContent", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return r.contentManager.SetUnavailableContent(opts, cid)
	})
}

// SetTitle implements model.ContentRegistry
func (r *EthRegistry) SetTitle(ctx context.Context, from common.Address, cid string, title string) (model.PendingTx, error) {
	return r.transactor.Send(ctx, from, nil, "setTitle", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return r.contentManager.SetTitle(opts, cid, title)
	})
}

// SetPrice implements model.ContentRegistry
func (r *EthRegistry) SetPrice(ctx context.Context, from common.Address, cid string, price *big.Int) (model.PendingTx, error) {
	return r.transactor.Send(ctx, from, nil, "setPrice", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return r.contentManager.SetPrice(opts, cid, price)
	})
}

// SetPlatformFee implements model.ContentRegistry
func (r *EthRegistry) SetPlatformFee(ctx context.Context, from common.Address, fee *big.Int) (model.PendingTx, error) {
	return r.transactor.Send(ctx, from, nil, "setPlatformFee", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return r.contentManager.SetPlatformFee(opts, fee)
	})
}

// Pay implements model.LicenceRegistry
func (r *EthRegistry) Pay(ctx context.Context, from common.Address, cid string, amount *big.Int) (model.PendingTx, error) {
	return r.transactor.Send(ctx, from, amount, "pay", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return r.licenceManager.Pay(opts, cid)
	})
}

// IssueLicence implements model.LicenceRegistry
func (r *EthRegistry) IssueLicence(ctx context.Context, holder common.Address, cid string,
	durationSecs int64) (model.PendingTx, error) {
	duration := big.NewInt(durationSecs)
	return r.transactor.Send(ctx, r.signers.Issuer(), nil, "issueLicence", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return r.licenceManager.IssueLicence(opts, holder, cid, duration)
	})
}

// RevokeLicence implements model.LicenceRegistry
func (r *EthRegistry) RevokeLicence(ctx context.Context, from common.Address, cid string) (model.PendingTx, error) {
	return r.transactor.Send(ctx, from, nil, "revokeLicence", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return r.licenceManager.RevokeLicence(opts, cid)
	})
}

// Licence implements model.LicenceRegistry
func (r *EthRegistry) Licence(ctx context.Context, holder common.Address, cid string) (*model.Licence, error) {
	record, err := r.licenceManager.GetLicenceDetails(callOpts(ctx), holder, cid)
	if err != nil {
		if _, reverted := RevertReasonFromError(err); reverted {
			return model.NewLicence(&model.LicenceParams{CID: cid, Holder: holder}), nil
		}
		return nil, errors.Wrapf(err, "error retrieving licence for %v", cid)
	}
	return licenceFromBinding(record), nil
}

// LicencesForUser implements model.LicenceRegistry
func (r *EthRegistry) LicencesForUser(ctx context.Context, holder common.Address) ([]*model.Licence, error) {
	records, err := r.licenceManager.GetLicencesForUser(callOpts(ctx), holder)
	if err != nil {
		return nil, errors.Wrapf(err, "error retrieving licences for %v", holder.Hex())
	}
	licences := make([]*model.Licence, len(records))
	for i, record := range records {
		licences[i] = licenceFromBinding(record)
	}
	return licences, nil
}

func contentFromBinding(record contracts.ContentManagerContent) *model.Content {
	return model.NewContent(&model.ContentParams{
		Creator:    record.Creator,
		Price:      record.Price,
		UsageCount: record.UsageCount,
		CID:        record.CID,
		Title:      record.Title,
		Available:  record.Available,
	})
}

func licenceFromBinding(record contracts.LicenceManagerLicence) *model.Licence {
	return model.NewLicence(&model.LicenceParams{
		IssueDate:  bigToInt64(record.IssueDate),
		ExpiryDate: bigToInt64(record.ExpiryDate),
		CID:        record.CID,
		Holder:     record.UserId,
		IsValid:    record.IsValid,
	})
}

func bigToInt64(num *big.Int) int64 {
	if num == nil || !num.IsInt64() {
		return 0
	}
	return num.Int64()
}

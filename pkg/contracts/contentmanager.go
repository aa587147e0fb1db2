package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ContentManagerContent is an auto generated low-level Go binding around an user-defined struct.
type ContentManagerContent struct {
	Creator    common.Address
	Price      *big.Int
	UsageCount *big.Int
	CID        string
	Title      string
	Available  bool
}

// ContentManager is a Go binding around the ContentManager contract.
type ContentManager struct {
	ContentManagerCaller     // Read-only binding to the contract
	ContentManagerTransactor // Write-only binding to the contract
}

// ContentManagerCaller is a read-only Go binding around the ContentManager contract.
type ContentManagerCaller struct {
	contract *bind.BoundContract
}

// ContentManagerTransactor is a write-only Go binding around the ContentManager contract.
type ContentManagerTransactor struct {
	contract *bind.BoundContract
}

// NewContentManager creates a new instance of ContentManager, bound to a specific deployed contract.
func NewContentManager(address common.Address, backend bind.ContractBackend) (*ContentManager, error) {
	contract, err := bindContentManager(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &ContentManager{
		ContentManagerCaller:     ContentManagerCaller{contract: contract},
		ContentManagerTransactor: ContentManagerTransactor{contract: contract},
	}, nil
}

func bindContentManager(address common.Address, caller bind.ContractCaller,
	transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := ContentManagerMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, *parsed, caller, transactor, filterer), nil
}

// GetContent is a free data retrieval call.
//
// Solidity: function getContent(string CID) view returns((address,uint256,uint256,string,string,bool))
func (_ContentManager *ContentManagerCaller) GetContent(opts *bind.CallOpts, CID string) (ContentManagerContent, error) {
	var out []interface{}
	err := _ContentManager.contract.Call(opts, &out, "getContent", CID)
	if err != nil {
		return *new(ContentManagerContent), err
	}
	out0 := *abi.ConvertType(out[0], new(ContentManagerContent)).(*ContentManagerContent)
	return out0, err
}

// GetAllContentDetails is a free data retrieval call.
//
// Solidity: function getAllContentDetails() view returns((address,uint256,uint256,string,string,bool)[])
func (_ContentManager *ContentManagerCaller) GetAllContentDetails(opts *bind.CallOpts) ([]ContentManagerContent, error) {
	var out []interface{}
	err := _ContentManager.contract.Call(opts, &out, "getAllContentDetails")
	if err != nil {
		return *new([]ContentManagerContent), err
	}
	out0 := *abi.ConvertType(out[0], new([]ContentManagerContent)).(*[]ContentManagerContent)
	return out0, err
}

// GetPlatformFee is a free data retrieval call.
//
// Solidity: function getPlatformFee() view returns(uint256)
func (_ContentManager *ContentManagerCaller) GetPlatformFee(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	err := _ContentManager.contract.Call(opts, &out, "getPlatformFee")
	if err != nil {
		return *new(*big.Int), err
	}
	out0 := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return out0, err
}

// Owner is a free data retrieval call.
//
// Solidity: function owner() view returns(address)
func (_ContentManager *ContentManagerCaller) Owner(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	err := _ContentManager.contract.Call(opts, &out, "owner")
	if err != nil {
		return *new(common.Address), err
	}
	out0 := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)
	return out0, err
}

// AddContent is a paid mutator transaction.
//
// Solidity: function addContent(uint256 price, string CID, string title) payable returns()
func (_ContentManager *ContentManagerTransactor) AddContent(opts *bind.TransactOpts, price *big.Int, CID string,
	title string) (*types.Transaction, error) {
	return _ContentManager.contract.Transact(opts, "addContent", price, CID, title)
}

// SetUnavailableContent is a paid mutator transaction.
//
// Solidity: function setUnavailableContent(string CID) returns()
func (_ContentManager *ContentManagerTransactor) SetUnavailableContent(opts *bind.TransactOpts, CID string) (*types.Transaction, error) {
	return _ContentManager.contract.Transact(opts, "setUnavailableContent", CID)
}

// SetTitle is a paid mutator transaction.
//
// Solidity: function setTitle(string CID, string title) returns()
func (_ContentManager *ContentManagerTransactor) SetTitle(opts *bind.TransactOpts, CID string, title string) (*types.Transaction, error) {
	return _ContentManager.contract.Transact(opts, "setTitle", CID, title)
}

// SetPrice is a paid mutator transaction.
//
// Solidity: function setPrice(string CID, uint256 price) returns()
func (_ContentManager *ContentManagerTransactor) SetPrice(opts *bind.TransactOpts, CID string, price *big.Int) (*types.Transaction, error) {
	return _ContentManager.contract.Transact(opts, "setPrice", CID, price)
}

// SetPlatformFee is a paid mutator transaction.
//
// Solidity: function setPlatformFee(uint256 fee) returns()
func (_ContentManager *ContentManagerTransactor) SetPlatformFee(opts *bind.TransactOpts, fee *big.Int) (*types.Transaction, error) {
	return _ContentManager.contract.Transact(opts, "setPlatformFee", fee)
}

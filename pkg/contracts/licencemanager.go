package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LicenceManagerLicence is an auto generated low-level Go binding around an user-defined struct.
type LicenceManagerLicence struct {
	IssueDate  *big.Int
	ExpiryDate *big.Int
	CID        string
	UserId     common.Address // nolint: golint
	IsValid    bool
}

// LicenceManager is a Go binding around the LicenceManager contract.
type LicenceManager struct {
	LicenceManagerCaller     // Read-only binding to the contract
	LicenceManagerTransactor // Write-only binding to the contract
}

// LicenceManagerCaller is a read-only Go binding around the LicenceManager contract.
type LicenceManagerCaller struct {
	contract *bind.BoundContract
}

// LicenceManagerTransactor is a write-only Go binding around the LicenceManager contract.
type LicenceManagerTransactor struct {
	contract *bind.BoundContract
}

// NewLicenceManager creates a new instance of LicenceManager, bound to a specific deployed contract.
func NewLicenceManager(address common.Address, backend bind.ContractBackend) (*LicenceManager, error) {
	contract, err := bindLicenceManager(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &LicenceManager{
		LicenceManagerCaller:     LicenceManagerCaller{contract: contract},
		LicenceManagerTransactor: LicenceManagerTransactor{contract: contract},
	}, nil
}

func bindLicenceManager(address common.Address, caller bind.ContractCaller,
	transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := LicenceManagerMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, *parsed, caller, transactor, filterer), nil
}

// GetLicenceDetails is a free data retrieval call.
//
// Solidity: function getLicenceDetails(address user, string CID) view returns((uint256,uint256,string,address,bool))
func (_LicenceManager *LicenceManagerCaller) GetLicenceDetails(opts *bind.CallOpts, user common.Address,
	CID string) (LicenceManagerLicence, error) {
	var out []interface{}
	err := _LicenceManager.contract.Call(opts, &out, "getLicenceDetails", user, CID)
	if err != nil {
		return *new(LicenceManagerLicence), err
	}
	out0 := *abi.ConvertType(out[0], new(LicenceManagerLicence)).(*LicenceManagerLicence)
	return out0, err
}

// GetLicencesForUser is a free data retrieval call.
//
// Solidity: function getLicencesForUser(address user) view returns((uint256,uint256,string,address,bool)[])
func (_LicenceManager *LicenceManagerCaller) GetLicencesForUser(opts *bind.CallOpts, user common.Address) ([]LicenceManagerLicence, error) {
	var out []interface{}
	err := _LicenceManager.contract.Call(opts, &out, "getLicencesForUser", user)
	if err != nil {
		return *new([]LicenceManagerLicence), err
	}
	out0 := *abi.ConvertType(out[0], new([]LicenceManagerLicence)).(*[]LicenceManagerLicence)
	return out0, err
}

// Pay is a paid mutator transaction.
//
// Solidity: function pay(string CID) payable returns()
func (_LicenceManager *LicenceManagerTransactor) Pay(opts *bind.TransactOpts, CID string) (*types.Transaction, error) {
	return _LicenceManager.contract.Transact(opts, "pay", CID)
}

// IssueLicence is a paid mutator transaction.
//
// Solidity: function issueLicence(address user, string CID, uint256 duration) returns()
func (_LicenceManager *LicenceManagerTransactor) IssueLicence(opts *bind.TransactOpts, user common.Address, CID string,
	duration *big.Int) (*types.Transaction, error) {
	return _LicenceManager.contract.Transact(opts, "issueLicence", user, CID, duration)
}

// RevokeLicence is a paid mutator transaction.
//
// Solidity: function revokeLicence(string CID) returns()
func (_LicenceManager *LicenceManagerTransactor) RevokeLicence(opts *bind.TransactOpts, CID string) (*types.Transaction, error) {
	return _LicenceManager.contract.Transact(opts, "revokeLicence", CID)
}

// Package contracts contains the Go bindings for the ContentManager and
// LicenceManager registry contracts.
package contracts // import "github.com/w3licence/licence-gateway/pkg/contracts"

//go:generate go run ../../cmd/eventlistgen -package contracts -out eventlists.go

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

const (
	// ContentManagerContractName is the name of the content registry contract
	ContentManagerContractName = "ContentManager"
	// LicenceManagerContractName is the name of the licence registry contract
	LicenceManagerContractName = "LicenceManager"
)

const contentTupleComponents = `[
	{"internalType":"address","name":"creator","type":"address"},
	{"internalType":"uint256","name":"price","type":"uint256"},
	{"internalType":"uint256","name":"usageCount","type":"uint256"},
	{"internalType":"string","name":"CID","type":"string"},
	{"internalType":"string","name":"title","type":"string"},
	{"internalType":"bool","name":"available","type":"bool"}
]`

const licenceTupleComponents = `[
	{"internalType":"uint256","name":"issueDate","type":"uint256"},
	{"internalType":"uint256","name":"expiryDate","type":"uint256"},
	{"internalType":"string","name":"CID","type":"string"},
	{"internalType":"address","name":"userId","type":"address"},
	{"internalType":"bool","name":"isValid","type":"bool"}
]`

// ContentManagerMetaData contains all meta data concerning the ContentManager contract.
var ContentManagerMetaData = &bind.MetaData{
	ABI: `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[
		{"internalType":"address","name":"initialOwner","type":"address"},
		{"internalType":"uint256","name":"platformFee","type":"uint256"}]},
	{"type":"function","name":"addContent","stateMutability":"payable","inputs":[
		{"internalType":"uint256","name":"price","type":"uint256"},
		{"internalType":"string","name":"CID","type":"string"},
		{"internalType":"string","name":"title","type":"string"}],"outputs":[]},
	{"type":"function","name":"getContent","stateMutability":"view","inputs":[
		{"internalType":"string","name":"CID","type":"string"}],"outputs":[
		{"internalType":"struct ContentManager.Content","name":"","type":"tuple","components":` + contentTupleComponents + `}]},
	{"type":"function","name":"getAllContentDetails","stateMutability":"view","inputs":[],"outputs":[
		{"internalType":"struct ContentManager.Content[]","name":"","type":"tuple[]","components":` + contentTupleComponents + `}]},
	{"type":"function","name":"setUnavailableContent","stateMutability":"nonpayable","inputs":[
		{"internalType":"string","name":"CID","type":"string"}],"outputs":[]},
	{"type":"function","name":"setTitle","stateMutability":"nonpayable","inputs":[
		{"internalType":"string","name":"CID","type":"string"},
		{"internalType":"string","name":"title","type":"string"}],"outputs":[]},
	{"type":"function","name":"setPrice","stateMutability":"nonpayable","inputs":[
		{"internalType":"string","name":"CID","type":"string"},
		{"internalType":"uint256","name":"price","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getPlatformFee","stateMutability":"view","inputs":[],"outputs":[
		{"internalType":"uint256","name":"","type":"uint256"}]},
	{"type":"function","name":"setPlatformFee","stateMutability":"nonpayable","inputs":[
		{"internalType":"uint256","name":"fee","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[
		{"internalType":"address","name":"","type":"address"}]},
	{"type":"event","name":"ContentAdded","anonymous":false,"inputs":[
		{"indexed":true,"internalType":"address","name":"creator","type":"address"},
		{"indexed":false,"internalType":"string","name":"CID","type":"string"}]},
	{"type":"event","name":"ContentUpdated","anonymous":false,"inputs":[
		{"indexed":true,"internalType":"address","name":"creator","type":"address"},
		{"indexed":false,"internalType":"string","name":"CID","type":"string"}]},
	{"type":"event","name":"PlatformFeeChanged","anonymous":false,"inputs":[
		{"indexed":false,"internalType":"uint256","name":"fee","type":"uint256"}]}
]`,
}

// LicenceManagerMetaData contains all meta data concerning the LicenceManager contract.
var LicenceManagerMetaData = &bind.MetaData{
	ABI: `[
	{"type":"constructor","stateMutability":"nonpayable","inputs":[
		{"internalType":"address","name":"initialOwner","type":"address"},
		{"internalType":"address","name":"contentManager","type":"address"}]},
	{"type":"function","name":"pay","stateMutability":"payable","inputs":[
		{"internalType":"string","name":"CID","type":"string"}],"outputs":[]},
	{"type":"function","name":"issueLicence","stateMutability":"nonpayable","inputs":[
		{"internalType":"address","name":"user","type":"address"},
		{"internalType":"string","name":"CID","type":"string"},
		{"internalType":"uint256","name":"duration","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"revokeLicence","stateMutability":"nonpayable","inputs":[
		{"internalType":"string","name":"CID","type":"string"}],"outputs":[]},
	{"type":"function","name":"getLicenceDetails","stateMutability":"view","inputs":[
		{"internalType":"address","name":"user","type":"address"},
		{"internalType":"string","name":"CID","type":"string"}],"outputs":[
		{"internalType":"struct LicenceManager.Licence","name":"","type":"tuple","components":` + licenceTupleComponents + `}]},
	{"type":"function","name":"getLicencesForUser","stateMutability":"view","inputs":[
		{"internalType":"address","name":"user","type":"address"}],"outputs":[
		{"internalType":"struct LicenceManager.Licence[]","name":"","type":"tuple[]","components":` + licenceTupleComponents + `}]},
	{"type":"event","name":"PaymentReceived","anonymous":false,"inputs":[
		{"indexed":true,"internalType":"address","name":"user","type":"address"},
		{"indexed":false,"internalType":"string","name":"CID","type":"string"},
		{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"}]},
	{"type":"event","name":"LicenceIssued","anonymous":false,"inputs":[
		{"indexed":true,"internalType":"address","name":"user","type":"address"},
		{"indexed":false,"internalType":"string","name":"CID","type":"string"},
		{"indexed":false,"internalType":"uint256","name":"expiryDate","type":"uint256"}]},
	{"type":"event","name":"LicenceRevoked","anonymous":false,"inputs":[
		{"indexed":true,"internalType":"address","name":"user","type":"address"},
		{"indexed":false,"internalType":"string","name":"CID","type":"string"}]}
]`,
}

// ContractSpec pairs a contract name with its ABI
type ContractSpec struct {
	Name     string
	MetaData *bind.MetaData
}

// Specs returns the specs of all registry contracts
func Specs() []*ContractSpec {
	return []*ContractSpec{
		{Name: ContentManagerContractName, MetaData: ContentManagerMetaData},
		{Name: LicenceManagerContractName, MetaData: LicenceManagerMetaData},
	}
}

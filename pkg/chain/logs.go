package chain

import (
	"context"
	"math/big"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/w3licence/licence-gateway/pkg/contracts"
	"github.com/w3licence/licence-gateway/pkg/model"
)

type boundABI struct {
	name string
	abi  *abi.ABI
}

// NewLogSource returns a model.EventSource reading logs of both registry contracts
func NewLogSource(backend Backend, contentManagerAddress common.Address,
	licenceManagerAddress common.Address) (*LogSource, error) {
	contentABI, err := contracts.ContentManagerMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	licenceABI, err := contracts.LicenceManagerMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return &LogSource{
		backend: backend,
		contracts: map[common.Address]*boundABI{
			contentManagerAddress: {name: contracts.ContentManagerContractName, abi: contentABI},
			licenceManagerAddress: {name: contracts.LicenceManagerContractName, abi: licenceABI},
		},
	}, nil
}

// LogSource implements model.EventSource over eth_getLogs
type LogSource struct {
	backend   Backend
	contracts map[common.Address]*boundABI
}

// LatestBlock implements model.EventSource
func (s *LogSource) LatestBlock(ctx context.Context) (uint64, error) {
	return s.backend.BlockNumber(ctx)
}

// EventsInRange implements model.EventSource
func (s *LogSource) EventsInRange(ctx context.Context, from uint64, to uint64) ([]*model.RegistryEvent, error) {
	addresses := make([]common.Address, 0, len(s.contracts))
	for address := range s.contracts {
		addresses = append(addresses, address)
	}
	logs, err := s.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: addresses,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error filtering logs %v-%v", from, to)
	}
	events := make([]*model.RegistryEvent, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		event, err := s.parseLog(lg)
		if err != nil {
			log.Errorf("Error parsing log %v:%v: err: %v", lg.TxHash.Hex(), lg.Index, err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *LogSource) parseLog(lg types.Log) (*model.RegistryEvent, error) {
	bound, ok := s.contracts[lg.Address]
	if !ok {
		return nil, errors.Errorf("unknown contract %v", lg.Address.Hex())
	}
	if len(lg.Topics) == 0 {
		return nil, errors.New("anonymous log")
	}
	event, err := bound.abi.EventByID(lg.Topics[0])
	if err != nil {
		return nil, err
	}
	payload := model.EventPayload{}
	if len(lg.Data) > 0 {
		err = bound.abi.UnpackIntoMap(payload, event.Name, lg.Data)
		if err != nil {
			return nil, err
		}
	}
	indexed := abi.Arguments{}
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	err = abi.ParseTopicsIntoMap(payload, indexed, lg.Topics[1:])
	if err != nil {
		return nil, err
	}
	return model.NewRegistryEvent(&model.RegistryEventParams{
		EventType:       event.Name,
		ContractName:    bound.name,
		ContractAddress: lg.Address,
		Payload:         payload,
		BlockNumber:     lg.BlockNumber,
		TxHash:          lg.TxHash,
		LogIndex:        lg.Index,
	}), nil
}

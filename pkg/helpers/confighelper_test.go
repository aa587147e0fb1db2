package helpers_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/w3licence/licence-gateway/pkg/chain/simulated"
	"github.com/w3licence/licence-gateway/pkg/helpers"
	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/persistence"
	"github.com/w3licence/licence-gateway/pkg/pubsub"
	"github.com/w3licence/licence-gateway/pkg/session"
	"github.com/w3licence/licence-gateway/pkg/storage"
	"github.com/w3licence/licence-gateway/pkg/utils"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func memoryConfig() *utils.GatewayConfig {
	return &utils.GatewayConfig{
		ChainType:            utils.ChainTypeSimulated,
		SimulatedPlatformFee: "2",
		SignerMode:           utils.SignerModeRelayer,
		SignerPrivateKey:     testKey,
		StorageType:          utils.StorageTypeMemory,
		StorageGatewayHost:   "ipfs.w3s.link",
		SessionStoreType:     utils.SessionStoreTypeMemory,
		PersisterType:        utils.PersisterTypeMemory,
	}
}

func TestPersister(t *testing.T) {
	p, err := helpers.Persister(memoryConfig())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, ok := p.(*persistence.MemoryPersister); !ok {
		t.Errorf("Should have defaulted to the memory persister: %T", p)
	}
	if _, ok := p.(model.PaymentPersister); !ok {
		t.Errorf("Persister should store payments")
	}
}

func TestSimulatedRegistries(t *testing.T) {
	ctx := context.Background()
	registries, err := helpers.RegistriesFromConfig(ctx, memoryConfig())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer registries.Close()

	key, _ := crypto.HexToECDSA(testKey)
	owner, err := registries.Contents.Owner(ctx)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if owner != crypto.PubkeyToAddress(key.PublicKey) {
		t.Errorf("Relayer account should own the simulated registry, got %v", owner.Hex())
	}
	fee, _ := registries.Contents.PlatformFee(ctx)
	if fee.Int64() != 2 {
		t.Errorf("Unexpected fee %v", fee)
	}
	if registries.Events == nil || registries.Licences == nil {
		t.Errorf("Should have set every backend")
	}
}

func TestSimulatedOwnerOverride(t *testing.T) {
	config := memoryConfig()
	config.SimulatedOwnerAddress = "0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d"
	registries, err := helpers.RegistriesFromConfig(context.Background(), config)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	owner, _ := registries.Contents.Owner(context.Background())
	if owner.Hex() != config.SimulatedOwnerAddress {
		t.Errorf("Should have used the configured owner, got %v", owner.Hex())
	}

	// The relayer key does not own this registry, so it cannot issue
	ctx := context.Background()
	_, _ = registries.Contents.AddContent(ctx, owner, big.NewInt(10), "X", "Doc", big.NewInt(2))
	_, _ = registries.Licences.Pay(ctx, owner, "X", big.NewInt(10))
	_, err = registries.Licences.IssueLicence(ctx, owner, "X", model.SecondsPerDay)
	if model.RevertReason(err) != simulated.ReasonNotIssuer {
		t.Errorf("Should have reverted the issue: err: %v", err)
	}
}

func TestStorage(t *testing.T) {
	config := memoryConfig()
	if _, ok := helpers.Storage(config).(*storage.MemoryStorage); !ok {
		t.Errorf("Should have returned memory storage")
	}
	config.StorageType = utils.StorageTypeIPFS
	config.StorageAPIURL = "http://localhost:5001"
	if _, ok := helpers.Storage(config).(*storage.IPFSStorage); !ok {
		t.Errorf("Should have returned ipfs storage")
	}
}

func TestSessionStoreAndPublisher(t *testing.T) {
	ctx := context.Background()
	config := memoryConfig()
	store, closeStore, err := helpers.SessionStoreFromConfig(ctx, config)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Errorf("Should have returned the memory store: %T", store)
	}

	publisher, closePublisher, err := helpers.EventPublisher(ctx, config)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer closePublisher()
	if _, ok := publisher.(*pubsub.NullPublisher); !ok {
		t.Errorf("Should drop events without a project: %T", publisher)
	}

	tokens, err := helpers.TokenSigner(config)
	if err != nil || tokens == nil {
		t.Errorf("Should have generated a token signer: %v", err)
	}
}

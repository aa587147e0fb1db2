// Package helpers contains various common helper functions.
// Normally they are shared functions used by the cmds.
package helpers

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/auth"
	"github.com/w3licence/licence-gateway/pkg/chain"
	"github.com/w3licence/licence-gateway/pkg/chain/simulated"
	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/persistence"
	"github.com/w3licence/licence-gateway/pkg/pubsub"
	"github.com/w3licence/licence-gateway/pkg/session"
	"github.com/w3licence/licence-gateway/pkg/storage"
	"github.com/w3licence/licence-gateway/pkg/utils"
)

// Persister is a helper function to return an interface{} that is a initialized
// persister type
func Persister(config *utils.GatewayConfig) (interface{}, error) {
	if config.PersisterType == utils.PersisterTypePostgresql {
		return postgresPersister(config)
	}
	// Default to the MemoryPersister
	return persistence.NewMemoryPersister(), nil
}

func postgresPersister(config *utils.GatewayConfig) (*persistence.PostgresPersister, error) {
	persister, err := persistence.NewPostgresPersister(
		config.PersisterPostgresAddress,
		config.PersisterPostgresPort,
		config.PersisterPostgresUser,
		config.PersisterPostgresPw,
		config.PersisterPostgresDbname,
	)
	if err != nil {
		return nil, err
	}
	// Attempts to create all the necessary tables here
	err = persister.CreateTables()
	if err != nil {
		return nil, err
	}
	return persister, nil
}

// Registries are the registry backends selected by the config
type Registries struct {
	Contents model.ContentRegistry
	Licences model.LicenceRegistry
	Events   model.EventSource
	close    func()
}

// Close releases the node connection, if any
func (r *Registries) Close() {
	if r.close != nil {
		r.close()
	}
}

// RegistriesFromConfig is a helper function to return the registry backends
// for the configured chain type
func RegistriesFromConfig(ctx context.Context, config *utils.GatewayConfig) (*Registries, error) {
	if config.ChainType == utils.ChainTypeEthereum {
		return ethRegistries(ctx, config)
	}
	fee, err := utils.ParseWei(config.SimulatedPlatformFee)
	if err != nil {
		return nil, err
	}
	owner, err := simulatedOwner(config)
	if err != nil {
		return nil, err
	}
	issuer, err := simulatedIssuer(config, owner)
	if err != nil {
		return nil, err
	}
	log.Infof("Using simulated registry owned by %v, issuing from %v", owner.Hex(), issuer.Hex())
	registry := simulated.NewRegistry(owner, fee, simulated.WithIssuer(issuer))
	return &Registries{Contents: registry, Licences: registry, Events: registry}, nil
}

// simulatedIssuer is the relayer account when a signing key is configured, as
// on chain, otherwise the owner
func simulatedIssuer(config *utils.GatewayConfig, owner common.Address) (common.Address, error) {
	if config.SignerPrivateKey == "" {
		return owner, nil
	}
	signer, err := chain.NewRelayerSigner(config.SignerPrivateKey)
	if err != nil {
		return common.Address{}, err
	}
	return signer.Issuer(), nil
}

func simulatedOwner(config *utils.GatewayConfig) (common.Address, error) {
	if config.SimulatedOwnerAddress != "" {
		return common.HexToAddress(config.SimulatedOwnerAddress), nil
	}
	if config.SignerPrivateKey != "" {
		signer, err := chain.NewRelayerSigner(config.SignerPrivateKey)
		if err != nil {
			return common.Address{}, err
		}
		return signer.Issuer(), nil
	}
	return common.Address{}, nil
}

func ethRegistries(ctx context.Context, config *utils.GatewayConfig) (*Registries, error) {
	client, err := ethclient.DialContext(ctx, config.EthAPIURL)
	if err != nil {
		return nil, errors.Wrap(err, "error dialing eth API")
	}
	chainID := big.NewInt(config.ChainID)
	if config.ChainID == 0 {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, errors.Wrap(err, "error reading chain id")
		}
	}
	signers, err := Signers(config)
	if err != nil {
		client.Close()
		return nil, err
	}
	contentManager := common.HexToAddress(config.ContentManagerAddress)
	licenceManager := common.HexToAddress(config.LicenceManagerAddress)
	registry, err := chain.NewEthRegistry(&chain.EthRegistryParams{
		Backend:               client,
		Signers:               signers,
		ChainID:               chainID,
		ContentManagerAddress: contentManager,
		LicenceManagerAddress: licenceManager,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	logs, err := chain.NewLogSource(client, contentManager, licenceManager)
	if err != nil {
		client.Close()
		return nil, err
	}
	log.Infof("Using registry contracts %v and %v on chain %v, issuer %v", contentManager.Hex(),
		licenceManager.Hex(), chainID, signers.Issuer().Hex())
	return &Registries{Contents: registry, Licences: registry, Events: logs, close: client.Close}, nil
}

// Signers is a helper function to return the signer provider for the
// configured signer mode
func Signers(config *utils.GatewayConfig) (chain.SignerProvider, error) {
	if config.SignerMode == utils.SignerModeKeystore {
		return chain.NewKeystoreSigners(config.KeystoreDir, config.KeystorePassphrase,
			common.HexToAddress(config.IssuerAddress))
	}
	return chain.NewRelayerSigner(config.SignerPrivateKey)
}

// Storage is a helper function to return the configured content storage
func Storage(config *utils.GatewayConfig) model.ContentStorage {
	if config.StorageType == utils.StorageTypeIPFS {
		return storage.NewIPFSStorage(&storage.IPFSStorageParams{
			APIURL:      config.StorageAPIURL,
			AuthToken:   config.StorageAuthToken,
			GatewayHost: config.StorageGatewayHost,
		})
	}
	return storage.NewMemoryStorage(config.StorageGatewayHost)
}

// SessionStore holds both sessions and login challenges
type SessionStore interface {
	model.SessionStore
	model.ChallengeStore
}

// SessionStoreFromConfig is a helper function to return the configured
// session store and a func to release it
func SessionStoreFromConfig(ctx context.Context, config *utils.GatewayConfig) (SessionStore, func(), error) {
	if config.SessionStoreType == utils.SessionStoreTypeRedis {
		store, err := session.NewRedisStore(ctx, &session.RedisStoreConfig{
			Address:  config.RedisAddress,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Errorf("Error closing redis: err: %v", err)
			}
		}, nil
	}
	return session.NewMemoryStore(), func() {}, nil
}

// TokenSigner is a helper function to return the bearer token signer
func TokenSigner(config *utils.GatewayConfig) (*auth.TokenSigner, error) {
	tokens, generated, err := auth.NewTokenSigner([]byte(config.JwtSecret))
	if err != nil {
		return nil, err
	}
	if generated {
		log.Infof("No JWT secret configured, tokens will not survive a restart")
	}
	return tokens, nil
}

// EventPublisher is a helper function to return the configured publisher and a
// func to release it. Events are dropped when no project is configured.
func EventPublisher(ctx context.Context, config *utils.GatewayConfig) (model.EventPublisher, func(), error) {
	if config.PubSubProjectID == "" || config.PubSubTopicName == "" {
		return &pubsub.NullPublisher{}, func() {}, nil
	}
	publisher, err := pubsub.NewGooglePubSub(ctx, config.PubSubProjectID, config.PubSubTopicName,
		config.PubSubCredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			log.Errorf("Error closing pubsub: err: %v", err)
		}
	}, nil
}

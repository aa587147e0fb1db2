// Package gatewaymain wires the gateway services from config and runs them
package gatewaymain // import "github.com/w3licence/licence-gateway/pkg/gatewaymain"

import (
	"context"
	"time"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/api"
	"github.com/w3licence/licence-gateway/pkg/auth"
	"github.com/w3licence/licence-gateway/pkg/gateway"
	"github.com/w3licence/licence-gateway/pkg/helpers"
	"github.com/w3licence/licence-gateway/pkg/indexer"
	"github.com/w3licence/licence-gateway/pkg/jobs"
	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/reconcile"
	"github.com/w3licence/licence-gateway/pkg/utils"
)

// InitializedPersisters contains initialized persisters needed to run the gateway
type InitializedPersisters struct {
	Index    model.ContentIndexPersister
	Cron     model.CronPersister
	Jobs     model.TxJobPersister
	Payments model.PaymentPersister
	closer   func() error
}

// Close releases the persister connection, if any
func (p *InitializedPersisters) Close() {
	if p.closer == nil {
		return
	}
	err := p.closer()
	if err != nil {
		log.Errorf("Error closing persister: err: %v", err)
	}
}

// InitPersisters inits the persisters from the config
func InitPersisters(config *utils.GatewayConfig) (*InitializedPersisters, error) {
	p, err := helpers.Persister(config)
	if err != nil {
		log.Errorf("Error getting the persister: %v", err)
		return nil, err
	}
	persisters := &InitializedPersisters{}
	var ok bool
	if persisters.Index, ok = p.(model.ContentIndexPersister); !ok {
		return nil, errors.Errorf("%T is not a content index persister", p)
	}
	if persisters.Cron, ok = p.(model.CronPersister); !ok {
		return nil, errors.Errorf("%T is not a cron persister", p)
	}
	if persisters.Jobs, ok = p.(model.TxJobPersister); !ok {
		return nil, errors.Errorf("%T is not a job persister", p)
	}
	if persisters.Payments, ok = p.(model.PaymentPersister); !ok {
		return nil, errors.Errorf("%T is not a payment persister", p)
	}
	if closer, ok := p.(interface{ Close() error }); ok {
		persisters.closer = closer.Close
	}
	return persisters, nil
}

// Services are the running parts of the gateway
type Services struct {
	Persisters *InitializedPersisters
	Registries *helpers.Registries
	Sessions   helpers.SessionStore
	Tracker    *jobs.Tracker
	Contents   *gateway.ContentGateway
	Licences   *gateway.LicenceGateway
	Indexer    *indexer.Indexer
	Reconciler *reconcile.Reconciler
	Server     *api.Server

	closers []func()
}

// Close releases every connection held by the services in reverse order
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// InitServices builds the gateway services from the config
func InitServices(ctx context.Context, config *utils.GatewayConfig) (*Services, error) {
	services := &Services{}
	ok := false
	defer func() {
		if !ok {
			services.Close()
		}
	}()

	persisters, err := InitPersisters(config)
	if err != nil {
		return nil, err
	}
	services.Persisters = persisters
	services.closers = append(services.closers, persisters.Close)

	registries, err := helpers.RegistriesFromConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing registries")
	}
	services.Registries = registries
	services.closers = append(services.closers, registries.Close)

	publisher, closePublisher, err := helpers.EventPublisher(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing pubsub")
	}
	services.closers = append(services.closers, closePublisher)

	store, closeStore, err := helpers.SessionStoreFromConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing session store")
	}
	services.Sessions = store
	services.closers = append(services.closers, closeStore)

	tokens, err := helpers.TokenSigner(config)
	if err != nil {
		return nil, err
	}

	services.Tracker = jobs.NewTracker(persisters.Jobs, utils.SecsDuration(config.TxTimeoutSecs))
	services.Contents = gateway.NewContentGateway(&gateway.ContentGatewayParams{
		Registry:    registries.Contents,
		Storage:     helpers.Storage(config),
		Tracker:     services.Tracker,
		Publisher:   publisher,
		GatewayHost: config.StorageGatewayHost,
	})
	services.Licences = gateway.NewLicenceGateway(&gateway.LicenceGatewayParams{
		Licences:  registries.Licences,
		Contents:  registries.Contents,
		Payments:  persisters.Payments,
		Tracker:   services.Tracker,
		Publisher: publisher,
	})
	services.Indexer = indexer.NewIndexer(&indexer.IndexerParams{
		Source:     registries.Events,
		Registry:   registries.Contents,
		Index:      persisters.Index,
		Cron:       persisters.Cron,
		Publisher:  publisher,
		StartBlock: config.IndexerStartBlock,
		BlockBatch: config.IndexerBlockBatch,
	})
	services.Reconciler = reconcile.NewReconciler(&reconcile.ReconcilerParams{
		Payments:   persisters.Payments,
		Licences:   registries.Licences,
		Issuer:     services.Licences,
		Jobs:       persisters.Jobs,
		JobTimeout: utils.SecsDuration(config.TxTimeoutSecs),
		Grace:      utils.SecsDuration(config.ReconcileGraceSecs),
		MaxWindow:  utils.SecsDuration(config.ReconcileMaxWindowSecs),
	})
	services.Server = api.NewServer(&api.ServerParams{
		Gate: auth.NewGate(&auth.GateParams{
			Challenges:   store,
			Sessions:     store,
			Tokens:       tokens,
			NonceTTL:     utils.SecsDuration(config.NonceTTLSecs),
			SessionTTL:   utils.SecsDuration(config.SessionTTLSecs),
			RequireNonce: config.RequireNonce,
		}),
		Contents:           services.Contents,
		Licences:           services.Licences,
		Tracker:            services.Tracker,
		RequestWait:        utils.SecsDuration(config.RequestWaitSecs),
		MaxUploadBytes:     config.MaxUploadBytes,
		CorsAllowedOrigins: config.CorsAllowedOrigins,
	})
	ok = true
	return services, nil
}

// RebuildIndex reloads the content index and switches listings over to it.
// Listings keep scanning the registry if the rebuild fails.
func RebuildIndex(ctx context.Context, services *Services) error {
	start := time.Now()
	err := services.Indexer.Rebuild(ctx)
	if err != nil {
		return err
	}
	services.Contents.SetIndex(services.Persisters.Index)
	log.Infof("Content index ready in %v", time.Since(start))
	return nil
}

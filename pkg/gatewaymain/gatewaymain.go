package gatewaymain

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/robfig/cron"

	"github.com/w3licence/licence-gateway/pkg/utils"
)

const (
	shutdownTimeout = 30 * time.Second
)

// SetupKillNotify closes quit on SIGINT or SIGTERM
func SetupKillNotify(quit chan<- struct{}) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-c
		log.Infof("Received %v, shutting down", sig)
		close(quit)
	}()
}

// waitForQuit blocks until quit closes, logging cron run times meanwhile
func waitForQuit(cr *cron.Cron, quit <-chan struct{}) {
	ticker := time.NewTicker(checkRunSecs * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			checkCron(cr)
		case <-quit:
			return
		}
	}
}

// GatewayMain runs the HTTP API with the indexer and reconciler crons
// until SIGINT or SIGTERM
func GatewayMain(config *utils.GatewayConfig) error {
	ctx := context.Background()
	services, err := InitServices(ctx, config)
	if err != nil {
		return err
	}
	defer services.Close()

	err = RebuildIndex(ctx, services)
	if err != nil {
		log.Errorf("Error rebuilding content index, listings will scan the registry: err: %v", err)
	}

	cr, err := NewGatewayCron(config, services)
	if err != nil {
		return errors.Wrap(err, "error scheduling crons")
	}
	cr.Start()
	defer cr.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%v", config.HTTPPort),
		Handler:           services.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Gateway listening on %v", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	quit := make(chan struct{})
	SetupKillNotify(quit)
	go waitForQuit(cr, quit)

	select {
	case err = <-serverErr:
		if err != http.ErrServerClosed {
			return errors.Wrap(err, "server stopped")
		}
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	if err != nil {
		log.Errorf("Error shutting down server: err: %v", err)
	}
	err = services.Tracker.Drain(shutdownCtx)
	if err != nil {
		log.Errorf("Transaction jobs still running at shutdown: err: %v", err)
	}
	log.Infof("Gateway stopped")
	return nil
}

// ReconcilerMain runs only the payment reconciler until SIGINT or SIGTERM.
// The persister has to be shared with the gateway.
func ReconcilerMain(config *utils.GatewayConfig) error {
	if config.PersisterType != utils.PersisterTypePostgresql || config.ChainType != utils.ChainTypeEthereum {
		return errors.New("standalone reconciler needs the postgresql persister and the ethereum chain type")
	}
	ctx := context.Background()
	services, err := InitServices(ctx, config)
	if err != nil {
		return err
	}
	defer services.Close()

	RunReconciler(ctx, services)

	cr, err := NewReconcilerCron(config, services)
	if err != nil {
		return errors.Wrap(err, "error scheduling reconciler")
	}
	cr.Start()
	defer cr.Stop()

	quit := make(chan struct{})
	SetupKillNotify(quit)
	waitForQuit(cr, quit)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = services.Tracker.Drain(shutdownCtx)
	if err != nil {
		log.Errorf("Issuance still running at shutdown: err: %v", err)
	}
	return nil
}

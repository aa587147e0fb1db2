// Package main drops the persisted content index and rebuilds it from the
// registry, then exits
package main

import (
	"context"
	"flag"
	"os"

	log "github.com/golang/glog"

	"github.com/w3licence/licence-gateway/pkg/gatewaymain"
	"github.com/w3licence/licence-gateway/pkg/utils"
)

func main() {
	config := &utils.GatewayConfig{}
	flag.Usage = func() {
		config.OutputUsage()
		os.Exit(0)
	}
	flag.Parse()

	err := config.PopulateFromEnv()
	if err != nil {
		config.OutputUsage()
		log.Errorf("Invalid rebuild config: err: %v\n", err)
		os.Exit(2)
	}
	if config.PersisterType != utils.PersisterTypePostgresql {
		log.Errorf("Rebuild only makes sense with the postgresql persister, got %v", config.PersisterTypeName)
		os.Exit(2)
	}

	ctx := context.Background()
	services, err := gatewaymain.InitServices(ctx, config)
	if err != nil {
		log.Errorf("Error initializing services, stopping...; err: %v", err)
		os.Exit(1)
	}
	defer services.Close()

	err = gatewaymain.RebuildIndex(ctx, services)
	if err != nil {
		log.Errorf("Error rebuilding index, stopping...; err: %v", err)
		services.Close()
		os.Exit(1) // nolint: gocritic
	}
	log.Info("Rebuild completed")
	log.Flush()
}

// Package main runs the payment reconciler on its own, next to one or more
// gateways sharing the same Postgresql database.
package main

import (
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
		log.Errorf("Invalid reconciler config: err: %v\n", err)
		os.Exit(2)
	}

	err = gatewaymain.ReconcilerMain(config)
	if err != nil {
		log.Errorf("Reconciler stopped with error: err: %v", err)
		log.Flush()
		os.Exit(1)
	}
	log.Flush()
}

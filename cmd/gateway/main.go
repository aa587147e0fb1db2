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
		log.Errorf("Invalid gateway config: err: %v\n", err)
		os.Exit(2)
	}

	err = gatewaymain.GatewayMain(config)
	if err != nil {
		log.Errorf("Gateway stopped with error: err: %v", err)
		log.Flush()
		os.Exit(1)
	}
	log.Flush()
}

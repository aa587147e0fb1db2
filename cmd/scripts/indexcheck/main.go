package main

// This script checks the persisted content index against the registry.
// Records missing from the index or out of date are printed and, on a wet
// run, written back from the registry.

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"

	"github.com/w3licence/licence-gateway/pkg/helpers"
	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/utils"
)

// Config configures this script
type Config struct {
	WetRun bool `split_words:"true" desc:"If set to true, will perform mutations on the data"`
}

// PopulateFromEnv processes the environment vars, populates Config
func (c *Config) PopulateFromEnv() error {
	return envconfig.Process("script", c)
}

func sameContent(a *model.Content, b *model.Content) bool {
	return a.Creator() == b.Creator() &&
		a.Price().Cmp(b.Price()) == 0 &&
		a.UsageCount().Cmp(b.UsageCount()) == 0 &&
		a.Title() == b.Title() &&
		a.Available() == b.Available()
}

func checkIndex(ctx context.Context, registry model.ContentRegistry,
	index model.ContentIndexPersister, wetRun bool) (int, error) {
	contents, err := registry.AllContents(ctx)
	if err != nil {
		return 0, err
	}
	mismatches := 0
	for _, content := range contents {
		indexed, err := index.IndexedContentByCID(content.CID())
		if err != nil && err != model.ErrPersisterNoResults {
			fmt.Printf("err getting indexed %v: %v\n", content.CID(), err)
			continue
		}
		if indexed != nil && sameContent(content, indexed) {
			continue
		}
		mismatches++
		if indexed == nil {
			fmt.Printf("missing: %v\n", content.CID())
		} else {
			fmt.Printf("stale: %v, indexed title: %v, price: %v, usage: %v\n", content.CID(),
				indexed.Title(), indexed.Price(), indexed.UsageCount())
		}
		if !wetRun {
			continue
		}
		err = index.UpsertIndexedContent(content)
		if err != nil {
			fmt.Printf("err fixing %v: %v\n", content.CID(), err)
		}
	}
	return mismatches, nil
}

func main() {
	config := &Config{}
	gatewayConfig := &utils.GatewayConfig{}
	flag.Usage = func() {
		gatewayConfig.OutputUsage()
		os.Exit(0)
	}
	flag.Parse()

	err := config.PopulateFromEnv()
	if err != nil {
		fmt.Printf("Invalid script config: err: %v\n", err)
		os.Exit(2)
	}
	err = gatewayConfig.PopulateFromEnv()
	if err != nil {
		fmt.Printf("Invalid gateway config: err: %v\n", err)
		os.Exit(2)
	}

	p, err := helpers.Persister(gatewayConfig)
	if err != nil {
		fmt.Printf("Error getting persister: err: %v\n", err)
		os.Exit(1)
	}
	index, ok := p.(model.ContentIndexPersister)
	if !ok {
		fmt.Printf("Persister %T has no content index\n", p)
		os.Exit(1)
	}

	ctx := context.Background()
	registries, err := helpers.RegistriesFromConfig(ctx, gatewayConfig)
	if err != nil {
		fmt.Printf("Error connecting to registry: err: %v\n", err)
		os.Exit(1)
	}
	defer registries.Close()

	mismatches, err := checkIndex(ctx, registries.Contents, index, config.WetRun)
	if err != nil {
		fmt.Printf("Error checking index: err: %v\n", err)
		os.Exit(1) // nolint: gocritic
	}
	fmt.Printf("Done, mismatches: %v, wet run: %v\n", mismatches, config.WetRun)
}

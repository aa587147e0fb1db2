// Package main writes the event name lists for the registry contracts
package main

import (
	"flag"
	"os"

	log "github.com/golang/glog"

	"github.com/w3licence/licence-gateway/pkg/gen"
)

func main() {
	packageName := flag.String("package", "contracts", "Package name of the generated file")
	outFile := flag.String("out", "", "Output file, stdout if empty")
	flag.Parse()

	writer := os.Stdout
	if *outFile != "" {
		file, err := os.Create(*outFile)
		if err != nil {
			log.Errorf("Error creating output file: err: %v", err)
			os.Exit(1)
		}
		defer file.Close() // nolint: errcheck
		writer = file
	}

	err := gen.GenerateEventLists(writer, *packageName)
	if err != nil {
		log.Errorf("Error generating event lists: err: %v", err)
		os.Exit(1) // nolint: gocritic
	}
}

package main

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/w3licence/licence-gateway/pkg/chain/simulated"
	"github.com/w3licence/licence-gateway/pkg/persistence"
)

var (
	owner   = common.HexToAddress("0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d")
	creator = common.HexToAddress("0xDFe273082089bB7f70Ee36Eebcde64832FE97E55")
)

func TestCheckIndex(t *testing.T) {
	ctx := context.Background()
	registry := simulated.NewRegistry(owner, big.NewInt(2))
	for _, cid := range []string{"A", "B"} {
		tx, err := registry.AddContent(ctx, creator, big.NewInt(10), cid, "Doc", big.NewInt(2))
		if err != nil {
			t.Fatalf("Should have added content: err: %v", err)
		}
		if err := tx.Wait(ctx); err != nil {
			t.Fatalf("Should have mined: err: %v", err)
		}
	}
	persister := persistence.NewMemoryPersister()
	stale, err := registry.Content(ctx, "A")
	if err != nil {
		t.Fatalf("Should have found content: err: %v", err)
	}
	err = persister.UpsertIndexedContent(stale)
	if err != nil {
		t.Fatalf("Should have indexed content: err: %v", err)
	}
	tx, err := registry.SetTitle(ctx, creator, "A", "Renamed")
	if err != nil {
		t.Fatalf("Should have set title: err: %v", err)
	}
	if err := tx.Wait(ctx); err != nil {
		t.Fatalf("Should have mined: err: %v", err)
	}

	mismatches, err := checkIndex(ctx, registry, persister, false)
	if err != nil {
		t.Fatalf("Should have checked index: err: %v", err)
	}
	if mismatches != 2 {
		t.Errorf("Should have found a stale and a missing record, got %v", mismatches)
	}
	indexed, _ := persister.IndexedContentByCID("A") // nolint: errcheck
	if indexed.Title() != "Doc" {
		t.Errorf("Dry run should not have fixed the index")
	}

	_, err = checkIndex(ctx, registry, persister, true)
	if err != nil {
		t.Fatalf("Should have fixed index: err: %v", err)
	}
	mismatches, err = checkIndex(ctx, registry, persister, false)
	if err != nil {
		t.Fatalf("Should have checked index: err: %v", err)
	}
	if mismatches != 0 {
		t.Errorf("Should have no mismatches after a wet run, got %v", mismatches)
	}
}

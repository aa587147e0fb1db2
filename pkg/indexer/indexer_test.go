package indexer_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/w3licence/licence-gateway/pkg/chain/simulated"
	"github.com/w3licence/licence-gateway/pkg/indexer"
	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/persistence"
	"github.com/w3licence/licence-gateway/pkg/pubsub"
)

var (
	owner   = common.HexToAddress("0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d")
	creator = common.HexToAddress("0xDFe273082089bB7f70Ee36Eebcde64832FE97E55")
	buyer   = common.HexToAddress("0x39eB410144784010A1B7E5a8C0aF9E1f5a8b7E5e")
)

type testEnv struct {
	registry  *simulated.Registry
	persister *persistence.MemoryPersister
	publisher *pubsub.MemoryPublisher
	indexer   *indexer.Indexer
}

func newTestEnv(startBlock uint64, batch uint64) *testEnv {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	registry := simulated.NewRegistry(owner, big.NewInt(2), simulated.WithClock(func() time.Time {
		return now
	}))
	persister := persistence.NewMemoryPersister()
	publisher := &pubsub.MemoryPublisher{}
	return &testEnv{
		registry:  registry,
		persister: persister,
		publisher: publisher,
		indexer: indexer.NewIndexer(&indexer.IndexerParams{
			Source:     registry,
			Registry:   registry,
			Index:      persister,
			Cron:       persister,
			Publisher:  publisher,
			StartBlock: startBlock,
			BlockBatch: batch,
		}),
	}
}

func mustMine(t *testing.T, tx model.PendingTx, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Should have sent tx: err: %v", err)
	}
	if err := tx.Wait(context.Background()); err != nil {
		t.Fatalf("Should have mined tx: err: %v", err)
	}
}

func TestIndexerFollowsContentEvents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(0, 0)

	tx, err := env.registry.AddContent(ctx, creator, big.NewInt(10), "X", "Doc", big.NewInt(2))
	mustMine(t, tx, err)
	tx, err = env.registry.AddContent(ctx, creator, big.NewInt(5), "Y", "Other", big.NewInt(2))
	mustMine(t, tx, err)

	last, err := env.indexer.Run(ctx)
	if err != nil {
		t.Fatalf("Should have run: err: %v", err)
	}
	if last != 2 {
		t.Errorf("Should have processed to block 2, got %v", last)
	}
	contents, err := env.persister.IndexedContents(nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("Should have indexed 2 records, got %v", len(contents))
	}

	tx, err = env.registry.SetTitle(ctx, creator, "X", "Renamed")
	mustMine(t, tx, err)
	tx, err = env.registry.SetUnavailable(ctx, creator, "Y")
	mustMine(t, tx, err)
	_, err = env.indexer.Run(ctx)
	if err != nil {
		t.Fatalf("Should have run: err: %v", err)
	}
	x, err := env.persister.IndexedContentByCID("X")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if x.Title() != "Renamed" {
		t.Errorf("Should have updated title, got %v", x.Title())
	}
	available, err := env.persister.IndexedContents(&model.ContentCriteria{AvailableOnly: true})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(available) != 1 || available[0].CID() != "X" {
		t.Errorf("Should have only X available: %v", available)
	}
	cursor, _ := env.persister.LastBlockForCron()
	if cursor != 4 {
		t.Errorf("Should have saved cursor 4, got %v", cursor)
	}
}

func TestIndexerPublishesLicenceEvents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(0, 0)

	tx, err := env.registry.AddContent(ctx, creator, big.NewInt(10), "X", "Doc", big.NewInt(2))
	mustMine(t, tx, err)
	tx, err = env.registry.Pay(ctx, buyer, "X", big.NewInt(10))
	mustMine(t, tx, err)
	tx, err = env.registry.IssueLicence(ctx, buyer, "X", 86400)
	mustMine(t, tx, err)
	tx, err = env.registry.RevokeLicence(ctx, buyer, "X")
	mustMine(t, tx, err)

	_, err = env.indexer.Run(ctx)
	if err != nil {
		t.Fatalf("Should have run: err: %v", err)
	}
	issued := env.publisher.EventsOfType(model.GatewayEventLicenceIssued)
	if len(issued) != 1 {
		t.Fatalf("Should have published 1 issued event, got %v", len(issued))
	}
	if issued[0].Address != buyer.Hex() || issued[0].CID != "X" {
		t.Errorf("Unexpected issued event: %+v", issued[0])
	}
	if issued[0].Data["source"] != indexer.EventSourceChain || issued[0].Data["blockNumber"] != "3" {
		t.Errorf("Unexpected issued event data: %v", issued[0].Data)
	}
	if issued[0].Data["expiryDate"] == "" {
		t.Errorf("Should have set the expiry date")
	}
	if len(env.publisher.EventsOfType(model.GatewayEventLicenceRevoked)) != 1 {
		t.Errorf("Should have published 1 revoked event")
	}

	x, err := env.persister.IndexedContentByCID("X")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if x.UsageCount().Int64() != 1 {
		t.Errorf("Should have reindexed usage count, got %v", x.UsageCount())
	}
}

func TestIndexerBatches(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(0, 2)
	for _, cid := range []string{"A", "B", "C", "D", "E"} {
		tx, err := env.registry.AddContent(ctx, creator, big.NewInt(1), cid, cid, big.NewInt(2))
		mustMine(t, tx, err)
	}

	last, err := env.indexer.Run(ctx)
	if err != nil {
		t.Fatalf("Should have run: err: %v", err)
	}
	if last != 2 {
		t.Errorf("Should have stopped at block 2, got %v", last)
	}
	contents, _ := env.persister.IndexedContents(nil)
	if len(contents) != 2 {
		t.Errorf("Should have indexed 2 records, got %v", len(contents))
	}

	err = env.indexer.CatchUp(ctx)
	if err != nil {
		t.Fatalf("Should have caught up: err: %v", err)
	}
	contents, _ = env.persister.IndexedContents(nil)
	if len(contents) != 5 {
		t.Errorf("Should have indexed 5 records, got %v", len(contents))
	}
	cursor, _ := env.persister.LastBlockForCron()
	if cursor != 5 {
		t.Errorf("Should have saved cursor 5, got %v", cursor)
	}

	last, err = env.indexer.Run(ctx)
	if err != nil {
		t.Fatalf("Should have run: err: %v", err)
	}
	if last != 5 {
		t.Errorf("Should not have moved past the head, got %v", last)
	}
}

func TestIndexerStartBlock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(3, 0)
	for _, cid := range []string{"A", "B", "C"} {
		tx, err := env.registry.AddContent(ctx, creator, big.NewInt(1), cid, cid, big.NewInt(2))
		mustMine(t, tx, err)
	}
	_, err := env.indexer.Run(ctx)
	if err != nil {
		t.Fatalf("Should have run: err: %v", err)
	}
	contents, _ := env.persister.IndexedContents(nil)
	if len(contents) != 1 || contents[0].CID() != "C" {
		t.Errorf("Should have only indexed from block 3: %v", contents)
	}
}

func TestIndexerRebuild(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(0, 0)
	for _, cid := range []string{"A", "B"} {
		tx, err := env.registry.AddContent(ctx, creator, big.NewInt(1), cid, cid, big.NewInt(2))
		mustMine(t, tx, err)
	}
	stale := model.NewContent(&model.ContentParams{CID: "Z", Creator: creator, Price: big.NewInt(1)})
	if err := env.persister.UpsertIndexedContent(stale); err != nil {
		t.Fatalf("err: %v", err)
	}

	err := env.indexer.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Should have rebuilt: err: %v", err)
	}
	contents, _ := env.persister.IndexedContents(nil)
	if len(contents) != 2 || contents[0].CID() != "A" || contents[1].CID() != "B" {
		t.Errorf("Should have replaced the index with registry records: %v", contents)
	}
	cursor, _ := env.persister.LastBlockForCron()
	if cursor != 2 {
		t.Errorf("Should have moved cursor to the head, got %v", cursor)
	}
}

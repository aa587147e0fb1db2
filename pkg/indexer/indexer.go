package indexer

import (
	"context"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	defaultBlockBatch = 5000
)

// IndexerParams are the dependencies and settings of an Indexer
type IndexerParams struct {
	Source     model.EventSource
	Registry   model.ContentRegistry
	Index      model.ContentIndexPersister
	Cron       model.CronPersister
	Publisher  model.EventPublisher
	StartBlock uint64
	BlockBatch uint64
}

// NewIndexer returns a new Indexer
func NewIndexer(params *IndexerParams) *Indexer {
	batch := params.BlockBatch
	if batch == 0 {
		batch = defaultBlockBatch
	}
	return &Indexer{
		source:     params.Source,
		registry:   params.Registry,
		index:      params.Index,
		cron:       params.Cron,
		processor:  NewEventProcessor(params.Registry, params.Index, params.Publisher),
		startBlock: params.StartBlock,
		batch:      batch,
	}
}

// Indexer follows registry events from the last processed block and keeps
// the content index current
type Indexer struct {
	source     model.EventSource
	registry   model.ContentRegistry
	index      model.ContentIndexPersister
	cron       model.CronPersister
	processor  *EventProcessor
	startBlock uint64
	batch      uint64
}

// Rebuild empties the index, reloads every record from the registry and
// moves the cursor to the current head
func (i *Indexer) Rebuild(ctx context.Context) error {
	latest, err := i.source.LatestBlock(ctx)
	if err != nil {
		return errors.Wrap(err, "reading latest block")
	}
	contents, err := i.registry.AllContents(ctx)
	if err != nil {
		return errors.Wrap(err, "reading registry contents")
	}
	err = i.index.DeleteIndexedContents()
	if err != nil {
		return errors.Wrap(err, "emptying index")
	}
	for _, content := range contents {
		err = i.index.UpsertIndexedContent(content)
		if err != nil {
			return errors.Wrapf(err, "indexing %v", content.CID())
		}
	}
	log.Infof("Rebuilt index with %v records at block %v", len(contents), latest)
	return i.cron.UpdateLastBlockForCron(latest)
}

// Run processes the next batch of blocks after the saved cursor. Returns the
// last block processed.
func (i *Indexer) Run(ctx context.Context) (uint64, error) {
	last, err := i.cron.LastBlockForCron()
	if err != nil {
		return 0, errors.Wrap(err, "reading cursor")
	}
	if i.startBlock > 0 && last < i.startBlock-1 {
		last = i.startBlock - 1
	}
	latest, err := i.source.LatestBlock(ctx)
	if err != nil {
		return last, errors.Wrap(err, "reading latest block")
	}
	if latest <= last {
		return last, nil
	}
	to := latest
	if to-last > i.batch {
		to = last + i.batch
	}

	events, err := i.source.EventsInRange(ctx, last+1, to)
	if err != nil {
		return last, errors.Wrapf(err, "reading events %v-%v", last+1, to)
	}
	log.Infof("Indexing %v events in blocks %v-%v", len(events), last+1, to)
	err = i.processor.Process(ctx, events)
	if err != nil {
		// Records are re-read from the registry on the next event or rebuild
		log.Errorf("Error processing events in blocks %v-%v: err: %v", last+1, to, err)
	}
	err = i.cron.UpdateLastBlockForCron(to)
	if err != nil {
		return last, errors.Wrap(err, "saving cursor")
	}
	return to, nil
}

// CatchUp runs batches until the cursor reaches the head seen at the start
func (i *Indexer) CatchUp(ctx context.Context) error {
	latest, err := i.source.LatestBlock(ctx)
	if err != nil {
		return errors.Wrap(err, "reading latest block")
	}
	for {
		last, err := i.Run(ctx)
		if err != nil {
			return err
		}
		if last >= latest {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

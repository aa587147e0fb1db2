package gateway

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/jobs"
	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/utils"
)

// UploadRequest is a file to register with its raw form values
type UploadRequest struct {
	File     []byte
	MimeType string
	Price    string
	Title    string
}

// ContentGatewayParams configures a ContentGateway
type ContentGatewayParams struct {
	Registry    model.ContentRegistry
	Storage     model.ContentStorage
	Tracker     *jobs.Tracker
	Publisher   model.EventPublisher
	GatewayHost string
}

// NewContentGateway returns a new ContentGateway. Listings scan the
// registry until an index is attached with SetIndex.
func NewContentGateway(params *ContentGatewayParams) *ContentGateway {
	return &ContentGateway{
		registry:    params.Registry,
		storage:     params.Storage,
		tracker:     params.Tracker,
		publisher:   params.Publisher,
		gatewayHost: params.GatewayHost,
	}
}

// ContentGateway registers and curates content in the content registry
type ContentGateway struct {
	registry    model.ContentRegistry
	storage     model.ContentStorage
	tracker     *jobs.Tracker
	publisher   model.EventPublisher
	gatewayHost string

	indexMutex sync.RWMutex
	index      model.ContentIndexPersister
}

// SetIndex attaches a populated secondary index used for listings and
// kept current by confirmed writes
func (g *ContentGateway) SetIndex(index model.ContentIndexPersister) {
	g.indexMutex.Lock()
	defer g.indexMutex.Unlock()
	g.index = index
}

func (g *ContentGateway) currentIndex() model.ContentIndexPersister {
	g.indexMutex.RLock()
	defer g.indexMutex.RUnlock()
	return g.index
}

// GatewayHost returns the host used to build file URLs
func (g *ContentGateway) GatewayHost() string {
	return g.gatewayHost
}

// Upload stores the file and registers it for the session's wallet. The
// returned job confirms once addContent is mined.
func (g *ContentGateway) Upload(ctx context.Context, session *model.Session,
	req *UploadRequest) (string, *model.TxJob, error) {
	err := requireSession(session)
	if err != nil {
		return "", nil, err
	}
	if len(req.File) == 0 {
		return "", nil, model.ValidationError("file required")
	}
	price, err := utils.ParsePositiveWei(req.Price)
	if err != nil {
		return "", nil, errors.Wrap(model.ErrInvalidPrice, err.Error())
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return "", nil, model.ValidationError("title required")
	}

	cid, err := g.storage.Put(ctx, req.File, req.MimeType)
	if err != nil {
		if errors.Is(err, model.ErrStorageUploadFailed) {
			return "", nil, err
		}
		return "", nil, errors.Wrap(model.ErrStorageUploadFailed, err.Error())
	}
	fee, err := g.registry.PlatformFee(ctx)
	if err != nil {
		return "", nil, errors.Wrap(err, "platform fee")
	}

	creator := session.Address
	job, err := g.tracker.Start(model.TxJobKindRegisterContent, creator, cid,
		func(ctx context.Context, record func(common.Hash)) error {
			tx, err := submit(ctx, record, func(ctx context.Context) (model.PendingTx, error) {
				return g.registry.AddContent(ctx, creator, price, cid, title, fee)
			})
			if err != nil {
				return err
			}
			g.refreshIndex(ctx, cid)
			publish(ctx, g.publisher, model.NewGatewayEvent(model.GatewayEventContentRegistered, creator, cid, tx.Hash()))
			return nil
		})
	if err != nil {
		return "", nil, err
	}
	log.Infof("Registering %v for %v in job %v", cid, creator.Hex(), job.ID)
	return cid, job, nil
}

// ListAll returns every available record
func (g *ContentGateway) ListAll(ctx context.Context) ([]*model.Content, error) {
	return g.list(ctx, &model.ContentCriteria{AvailableOnly: true})
}

// ListMine returns every record created by the session's wallet,
// including the ones it disabled
func (g *ContentGateway) ListMine(ctx context.Context, session *model.Session) ([]*model.Content, error) {
	err := requireSession(session)
	if err != nil {
		return nil, err
	}
	creator := session.Address
	return g.list(ctx, &model.ContentCriteria{Creator: &creator})
}

func (g *ContentGateway) list(ctx context.Context, criteria *model.ContentCriteria) ([]*model.Content, error) {
	if index := g.currentIndex(); index != nil {
		contents, err := index.IndexedContents(criteria)
		if err == nil {
			return contents, nil
		}
		log.Errorf("Error reading content index, scanning registry: err: %v", err)
	}
	all, err := g.registry.AllContents(ctx)
	if err != nil {
		return nil, err
	}
	contents := []*model.Content{}
	for _, content := range all {
		if criteria.Matches(content) {
			contents = append(contents, content)
		}
	}
	return contents, nil
}

// ContentByCID returns the registry record for a CID
func (g *ContentGateway) ContentByCID(ctx context.Context, cid string) (*model.Content, error) {
	cid, err := requireCID(cid)
	if err != nil {
		return nil, err
	}
	return g.registry.Content(ctx, cid)
}

// SetDisabled marks content unavailable
func (g *ContentGateway) SetDisabled(ctx context.Context, session *model.Session, cid string) (*model.TxJob, error) {
	return g.update(session, model.TxJobKindDisableContent, cid,
		func(ctx context.Context, from common.Address, cid string) (model.PendingTx, error) {
			return g.registry.SetUnavailable(ctx, from, cid)
		})
}

// SetTitle renames content
func (g *ContentGateway) SetTitle(ctx context.Context, session *model.Session, cid string,
	title string) (*model.TxJob, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, model.ValidationError("title required")
	}
	return g.update(session, model.TxJobKindSetTitle, cid,
		func(ctx context.Context, from common.Address, cid string) (model.PendingTx, error) {
			return g.registry.SetTitle(ctx, from, cid, title)
		})
}

// SetPrice reprices content. The price must be a positive amount of wei.
func (g *ContentGateway) SetPrice(ctx context.Context, session *model.Session, cid string,
	rawPrice string) (*model.TxJob, error) {
	price, err := utils.ParsePositiveWei(rawPrice)
	if err != nil {
		return nil, errors.Wrap(model.ErrInvalidPrice, err.Error())
	}
	return g.update(session, model.TxJobKindSetPrice, cid,
		func(ctx context.Context, from common.Address, cid string) (model.PendingTx, error) {
			return g.registry.SetPrice(ctx, from, cid, price)
		})
}

type updateFn func(ctx context.Context, from common.Address, cid string) (model.PendingTx, error)

func (g *ContentGateway) update(session *model.Session, kind model.TxJobKind, rawCID string,
	fn updateFn) (*model.TxJob, error) {
	err := requireSession(session)
	if err != nil {
		return nil, err
	}
	cid, err := requireCID(rawCID)
	if err != nil {
		return nil, err
	}
	from := session.Address
	return g.tracker.Start(kind, from, cid, func(ctx context.Context, record func(common.Hash)) error {
		tx, err := submit(ctx, record, func(ctx context.Context) (model.PendingTx, error) {
			return fn(ctx, from, cid)
		})
		if err != nil {
			return err
		}
		g.refreshIndex(ctx, cid)
		event := model.NewGatewayEvent(model.GatewayEventContentUpdated, from, cid, tx.Hash())
		event.Data["change"] = string(kind)
		publish(ctx, g.publisher, event)
		return nil
	})
}

// PlatformFee returns the fee charged for registering content
func (g *ContentGateway) PlatformFee(ctx context.Context) (*big.Int, error) {
	return g.registry.PlatformFee(ctx)
}

// SetPlatformFee changes the platform fee. Only the registry owner succeeds.
func (g *ContentGateway) SetPlatformFee(ctx context.Context, session *model.Session,
	rawFee string) (*model.TxJob, error) {
	err := requireSession(session)
	if err != nil {
		return nil, err
	}
	fee, err := utils.ParseWei(rawFee)
	if err != nil {
		return nil, model.ValidationError("invalid fee: %v", err)
	}
	from := session.Address
	return g.tracker.Start(model.TxJobKindSetPlatformFee, from, "",
		func(ctx context.Context, record func(common.Hash)) error {
			_, err := submit(ctx, record, func(ctx context.Context) (model.PendingTx, error) {
				return g.registry.SetPlatformFee(ctx, from, fee)
			})
			return err
		})
}

// refreshIndex re-reads a record from the registry into the index
func (g *ContentGateway) refreshIndex(ctx context.Context, cid string) {
	index := g.currentIndex()
	if index == nil {
		return
	}
	content, err := g.registry.Content(ctx, cid)
	if err != nil {
		log.Errorf("Error reading %v for the index: err: %v", cid, err)
		return
	}
	err = index.UpsertIndexedContent(content)
	if err != nil {
		log.Errorf("Error indexing %v: err: %v", cid, err)
	}
}

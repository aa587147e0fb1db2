package gateway_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/chain/simulated"
	"github.com/w3licence/licence-gateway/pkg/gateway"
	"github.com/w3licence/licence-gateway/pkg/jobs"
	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/persistence"
	"github.com/w3licence/licence-gateway/pkg/pubsub"
	"github.com/w3licence/licence-gateway/pkg/storage"
)

var (
	owner   = common.HexToAddress("0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d")
	creator = common.HexToAddress("0xDFe273082089bB7f70Ee36Eebcde64832FE97E55")
	buyer   = common.HexToAddress("0x39eB410144784010A1B7E5a8C0aF9E1f5a8b7E5e")
)

// failingIssuer rejects every issuance while fail is set
type failingIssuer struct {
	*simulated.Registry
	fail bool
}

func (f *failingIssuer) IssueLicence(ctx context.Context, holder common.Address, cid string,
	durationSecs int64) (model.PendingTx, error) {
	if f.fail {
		return nil, model.NewChainTransactionError("issuer out of gas")
	}
	return f.Registry.IssueLicence(ctx, holder, cid, durationSecs)
}

type testEnv struct {
	registry  *simulated.Registry
	licences  *failingIssuer
	persister *persistence.MemoryPersister
	publisher *pubsub.MemoryPublisher
	contents  *gateway.ContentGateway
	gateway   *gateway.LicenceGateway
}

func newTestEnv(t *testing.T) *testEnv {
	registry := simulated.NewRegistry(owner, big.NewInt(2))
	persister := persistence.NewMemoryPersister()
	tracker := jobs.NewTracker(persister, time.Minute)
	publisher := &pubsub.MemoryPublisher{}
	licences := &failingIssuer{Registry: registry}
	return &testEnv{
		registry:  registry,
		licences:  licences,
		persister: persister,
		publisher: publisher,
		contents: gateway.NewContentGateway(&gateway.ContentGatewayParams{
			Registry:    registry,
			Storage:     storage.NewMemoryStorage("ipfs.w3s.link"),
			Tracker:     tracker,
			Publisher:   publisher,
			GatewayHost: "ipfs.w3s.link",
		}),
		gateway: gateway.NewLicenceGateway(&gateway.LicenceGatewayParams{
			Licences:  licences,
			Contents:  registry,
			Payments:  persister,
			Tracker:   tracker,
			Publisher: publisher,
		}),
	}
}

func sessionFor(address common.Address) *model.Session {
	return &model.Session{ID: address.Hex(), Address: address, ExpiresAt: time.Now().Add(time.Hour)}
}

func (e *testEnv) upload(t *testing.T, from common.Address, data string, price string, title string) string {
	t.Helper()
	cid, job, err := e.contents.Upload(context.Background(), sessionFor(from), &gateway.UploadRequest{
		File:     []byte(data),
		MimeType: "text/plain",
		Price:    price,
		Title:    title,
	})
	if err != nil {
		t.Fatalf("Should have started the upload: err: %v", err)
	}
	e.mustConfirm(t, job)
	return cid
}

func (e *testEnv) wait(job *model.TxJob) (*model.TxJob, error) {
	for i := 0; i < 200; i++ {
		current, err := e.persister.TxJobByID(job.ID)
		if err != nil {
			return nil, err
		}
		if current.Done() {
			if current.Status == model.TxJobStatusFailed {
				return current, errors.New(current.Error)
			}
			return current, nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil, errors.New("job did not finish")
}

func (e *testEnv) mustConfirm(t *testing.T, job *model.TxJob) {
	t.Helper()
	done, err := e.wait(job)
	if err != nil {
		t.Fatalf("Job should have confirmed: err: %v", err)
	}
	if done.Status != model.TxJobStatusConfirmed {
		t.Fatalf("Unexpected job status %v", done.Status)
	}
}

func TestUploadAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cid := env.upload(t, creator, "doc one", "10", "Doc")

	content, err := env.contents.ContentByCID(ctx, cid)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if content.Creator() != creator || content.Price().Int64() != 10 || content.UsageCount().Int64() != 0 ||
		content.Title() != "Doc" || !content.Available() {
		t.Errorf("Unexpected record %+v", content)
	}
	record := gateway.NewContentRecord(content, env.contents.GatewayHost())
	if record.FileURL != "https://"+cid+".ipfs.w3s.link" {
		t.Errorf("Unexpected file url %v", record.FileURL)
	}
	if len(env.publisher.EventsOfType(model.GatewayEventContentRegistered)) != 1 {
		t.Errorf("Should have published the registration")
	}

	other := env.upload(t, buyer, "doc two", "5", "Other")
	tx, err := env.contents.SetDisabled(ctx, sessionFor(buyer), other)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	env.mustConfirm(t, tx)

	all, _ := env.contents.ListAll(ctx)
	if len(all) != 1 || all[0].CID() != cid {
		t.Errorf("ListAll should only return available records, got %v", len(all))
	}
	mine, _ := env.contents.ListMine(ctx, sessionFor(buyer))
	if len(mine) != 1 || mine[0].Available() {
		t.Errorf("ListMine should include the owner's disabled records")
	}
	mine, _ = env.contents.ListMine(ctx, sessionFor(owner))
	if len(mine) != 0 {
		t.Errorf("ListMine should only return the wallet's records")
	}
}

func TestListUsesIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	index := persistence.NewMemoryPersister()
	env.contents.SetIndex(index)
	cid := env.upload(t, creator, "indexed", "10", "Doc")

	indexed, err := index.IndexedContentByCID(cid)
	if err != nil || indexed.Title() != "Doc" {
		t.Fatalf("Upload should have written through to the index: %v", err)
	}
	job, _ := env.contents.SetTitle(ctx, sessionFor(creator), cid, "Doc 2")
	env.mustConfirm(t, job)
	indexed, _ = index.IndexedContentByCID(cid)
	if indexed.Title() != "Doc 2" {
		t.Errorf("Title change should have refreshed the index")
	}
	all, _ := env.contents.ListAll(ctx)
	if len(all) != 1 || all[0].Title() != "Doc 2" {
		t.Errorf("Should have listed from the index")
	}
}

func TestDuplicateUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.upload(t, creator, "same bytes", "10", "Doc")

	_, job, err := env.contents.Upload(ctx, sessionFor(buyer), &gateway.UploadRequest{
		File: []byte("same bytes"), Price: "7", Title: "Copy",
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	_, err = env.wait(job)
	if err == nil || err.Error() != "Transaction failed: "+simulated.ReasonContentExists {
		t.Errorf("Duplicate upload should have reverted: %v", err)
	}
	all, _ := env.contents.ListAll(ctx)
	if len(all) != 1 {
		t.Errorf("Should not have created a duplicate")
	}
}

func TestUploadValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cases := []*gateway.UploadRequest{
		{File: nil, Price: "10", Title: "Doc"},
		{File: []byte("x"), Price: "0", Title: "Doc"},
		{File: []byte("x"), Price: "ten", Title: "Doc"},
		{File: []byte("x"), Price: "10", Title: "  "},
	}
	for i, req := range cases {
		_, _, err := env.contents.Upload(ctx, sessionFor(creator), req)
		if !errors.Is(err, model.ErrValidation) && !errors.Is(err, model.ErrInvalidPrice) {
			t.Errorf("Case %v should have failed validation: %v", i, err)
		}
	}
	_, _, err := env.contents.Upload(ctx, nil, cases[0])
	if err != model.ErrUnauthenticated {
		t.Errorf("Should require a session: %v", err)
	}
	latest, _ := env.registry.LatestBlock(ctx)
	if latest != 0 {
		t.Errorf("Validation failures should not reach the registry")
	}
}

func TestUpdatesEnforcedByRegistry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cid := env.upload(t, creator, "doc", "10", "Doc")

	job, _ := env.contents.SetPrice(ctx, sessionFor(buyer), cid, "20")
	_, err := env.wait(job)
	if err == nil {
		t.Errorf("Only the creator should change the price")
	}
	_, err = env.contents.SetPrice(ctx, sessionFor(creator), cid, "0")
	if !errors.Is(err, model.ErrInvalidPrice) {
		t.Errorf("Should reject a zero price: %v", err)
	}
	job, _ = env.contents.SetPrice(ctx, sessionFor(creator), cid, "20")
	env.mustConfirm(t, job)
	content, _ := env.contents.ContentByCID(ctx, cid)
	if content.Price().Int64() != 20 {
		t.Errorf("Price should have changed")
	}

	job, _ = env.contents.SetPlatformFee(ctx, sessionFor(creator), "5")
	_, err = env.wait(job)
	if err == nil {
		t.Errorf("Only the owner should change the fee")
	}
	job, _ = env.contents.SetPlatformFee(ctx, sessionFor(owner), "5")
	env.mustConfirm(t, job)
	fee, _ := env.contents.PlatformFee(ctx)
	if fee.Int64() != 5 {
		t.Errorf("Unexpected fee %v", fee)
	}

	_, err = env.contents.ContentByCID(ctx, "missing")
	if err != model.ErrContentNotFound {
		t.Errorf("Should not find unknown content: %v", err)
	}
}

func TestBuyLicenceEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cid := env.upload(t, creator, "licensed", "10", "Doc")

	job, err := env.gateway.BuyLicence(ctx, sessionFor(buyer), cid, "30")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	env.mustConfirm(t, job)
	done, _ := env.persister.TxJobByID(job.ID)
	if len(done.TxHashes) != 2 {
		t.Errorf("Should have recorded the pay and issue transactions, got %v", len(done.TxHashes))
	}

	licences, _ := env.gateway.ListMine(ctx, sessionFor(buyer))
	if len(licences) != 1 {
		t.Fatalf("Should have one licence, got %v", len(licences))
	}
	licence := licences[0]
	if !licence.IsValid() || licence.ExpiryDate()-licence.IssueDate() != 2592000 {
		t.Errorf("Unexpected licence duration %v", licence.DurationSecs())
	}
	record := gateway.NewLicenceRecord(licence)
	if record.IssueTimestamp == "" || record.UserID != buyer.Hex() {
		t.Errorf("Unexpected record %+v", record)
	}
	payment, _ := env.persister.PaymentByKey(buyer, cid)
	if payment.Status != model.PaymentStatusIssued {
		t.Errorf("Payment should be issued, got %v", payment.Status)
	}
	if payment.JobID != job.ID {
		t.Errorf("Payment should point at its buy job, got %v", payment.JobID)
	}
	status, _ := env.gateway.Verify(ctx, buyer.Hex(), cid)
	if !status.Active || status.State != "valid" {
		t.Errorf("Licence should verify as active: %+v", status)
	}

	job, _ = env.gateway.Revoke(ctx, sessionFor(buyer), cid)
	env.mustConfirm(t, job)
	status, _ = env.gateway.Verify(ctx, buyer.Hex(), cid)
	if status.Active || status.State != "revoked" {
		t.Errorf("Licence should be revoked: %+v", status)
	}
	job, _ = env.gateway.Revoke(ctx, sessionFor(buyer), cid)
	_, err = env.wait(job)
	if err == nil {
		t.Errorf("Revoking twice should fail")
	}
	if len(env.publisher.EventsOfType(model.GatewayEventLicenceIssued)) != 1 ||
		len(env.publisher.EventsOfType(model.GatewayEventLicenceRevoked)) != 1 {
		t.Errorf("Should have published issue and revoke events")
	}
}

func TestBuyLicenceValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cid := env.upload(t, creator, "licensed", "10", "Doc")
	before, _ := env.registry.LatestBlock(ctx)

	for _, days := range []string{"0", "-3", "1.5", "", "forever"} {
		_, err := env.gateway.BuyLicence(ctx, sessionFor(buyer), cid, days)
		if !errors.Is(err, model.ErrValidation) {
			t.Errorf("Duration %q should have failed validation: %v", days, err)
		}
	}
	_, err := env.gateway.BuyLicence(ctx, sessionFor(buyer), "missing", "1")
	if err != model.ErrContentNotFound {
		t.Errorf("Should not buy unknown content: %v", err)
	}
	after, _ := env.registry.LatestBlock(ctx)
	if before != after {
		t.Errorf("Rejected purchases should not send transactions")
	}
	status, _ := env.gateway.Verify(ctx, buyer.Hex(), cid)
	if status.State != "nonexistent" || status.Active {
		t.Errorf("No licence should exist: %+v", status)
	}
	_, err = env.gateway.Verify(ctx, "0x12", cid)
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("Should reject an invalid holder: %v", err)
	}
}

func TestIssuanceFailureKeepsPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cid := env.upload(t, creator, "licensed", "10", "Doc")
	env.licences.fail = true

	job, _ := env.gateway.BuyLicence(ctx, sessionFor(buyer), cid, "1")
	_, err := env.wait(job)
	if err == nil {
		t.Fatalf("Issuance should have failed")
	}
	payment, err := env.persister.PaymentByKey(buyer, cid)
	if err != nil {
		t.Fatalf("Payment should have been recorded: %v", err)
	}
	if payment.Status != model.PaymentStatusPaid || payment.Attempts != 1 || payment.LastError == "" {
		t.Errorf("Unexpected payment %+v", payment)
	}
	_, err = env.gateway.BuyLicence(ctx, sessionFor(buyer), cid, "1")
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("Should not pay twice while a payment awaits issuance: %v", err)
	}

	env.licences.fail = false
	err = env.gateway.IssuePayment(ctx, payment)
	if err != nil {
		t.Fatalf("Retry should have issued: %v", err)
	}
	payment, _ = env.persister.PaymentByKey(buyer, cid)
	if payment.Status != model.PaymentStatusIssued || payment.Attempts != 2 {
		t.Errorf("Unexpected payment after retry %+v", payment)
	}
}

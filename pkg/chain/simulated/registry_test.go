package simulated_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/w3licence/licence-gateway/pkg/chain/simulated"
	"github.com/w3licence/licence-gateway/pkg/model"
)

var (
	owner   = common.HexToAddress("0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d")
	creator = common.HexToAddress("0xDFe273082089bB7f70Ee36Eebcde64832FE97E55")
	buyer   = common.HexToAddress("0x39eB410144784010A1B7E5a8C0aF9E1f5a8b7E5e")
)

func newRegistry(now time.Time) *simulated.Registry {
	return simulated.NewRegistry(owner, big.NewInt(2), simulated.WithClock(func() time.Time {
		return now
	}))
}

func expectRevert(t *testing.T, err error, reason string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Should have reverted with %q", reason)
	}
	if model.RevertReason(err) != reason {
		t.Errorf("Expected revert %q, got %v", reason, err)
	}
}

func TestEndToEndLicence(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := newRegistry(now)

	tx, err := reg.AddContent(ctx, creator, big.NewInt(10), "X", "Doc", big.NewInt(2))
	if err != nil {
		t.Fatalf("Should have added content: err: %v", err)
	}
	if err := tx.Wait(ctx); err != nil {
		t.Fatalf("err: %v", err)
	}
	content, err := reg.Content(ctx, "X")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if content.Creator() != creator || content.Price().Int64() != 10 || content.UsageCount().Int64() != 0 ||
		content.Title() != "Doc" || !content.Available() {
		t.Errorf("Unexpected content record: %+v", content)
	}

	_, err = reg.Pay(ctx, buyer, "X", big.NewInt(10))
	if err != nil {
		t.Fatalf("Should have paid: err: %v", err)
	}
	_, err = reg.IssueLicence(ctx, buyer, "X", model.DurationDaysToSecs(30))
	if err != nil {
		t.Fatalf("Should have issued: err: %v", err)
	}
	licence, _ := reg.Licence(ctx, buyer, "X")
	if !licence.IsValid() || licence.ExpiryDate()-licence.IssueDate() != 2592000 {
		t.Errorf("Unexpected licence: valid %v duration %v", licence.IsValid(), licence.DurationSecs())
	}
	if licence.IssueDate() != now.Unix() {
		t.Errorf("Should have used the registry clock")
	}
	content, _ = reg.Content(ctx, "X")
	if content.UsageCount().Int64() != 1 {
		t.Errorf("Should have counted the payment")
	}

	_, err = reg.RevokeLicence(ctx, buyer, "X")
	if err != nil {
		t.Fatalf("Should have revoked: err: %v", err)
	}
	licence, _ = reg.Licence(ctx, buyer, "X")
	if licence.IsValid() {
		t.Errorf("Should no longer be valid")
	}
	_, err = reg.RevokeLicence(ctx, buyer, "X")
	expectRevert(t, err, simulated.ReasonNoValidLicence)
}

func TestDuplicateCID(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(time.Now())
	_, err := reg.AddContent(ctx, creator, big.NewInt(10), "X", "Doc", big.NewInt(2))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	_, err = reg.AddContent(ctx, buyer, big.NewInt(5), "X", "Other", big.NewInt(2))
	expectRevert(t, err, simulated.ReasonContentExists)
	all, _ := reg.AllContents(ctx)
	if len(all) != 1 || all[0].Title() != "Doc" {
		t.Errorf("Should not have created a duplicate")
	}
}

func TestFeeAndOwnership(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(time.Now())
	_, err := reg.AddContent(ctx, creator, big.NewInt(10), "X", "Doc", big.NewInt(1))
	expectRevert(t, err, simulated.ReasonInsufficientFee)

	_, err = reg.AddContent(ctx, creator, big.NewInt(10), "X", "Doc", big.NewInt(2))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	_, err = reg.SetTitle(ctx, buyer, "X", "Stolen")
	expectRevert(t, err, simulated.ReasonNotCreator)
	_, err = reg.SetPrice(ctx, creator, "Y", big.NewInt(3))
	expectRevert(t, err, simulated.ReasonContentNotFound)
	_, err = reg.SetPrice(ctx, creator, "X", big.NewInt(0))
	expectRevert(t, err, simulated.ReasonInvalidPrice)

	_, err = reg.SetPlatformFee(ctx, creator, big.NewInt(5))
	expectRevert(t, err, simulated.ReasonNotOwner)
	_, err = reg.SetPlatformFee(ctx, owner, big.NewInt(5))
	if err != nil {
		t.Fatalf("Owner should change the fee: err: %v", err)
	}
	fee, _ := reg.PlatformFee(ctx)
	if fee.Int64() != 5 {
		t.Errorf("Unexpected fee %v", fee)
	}

	_, err = reg.SetUnavailable(ctx, creator, "X")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	_, err = reg.Pay(ctx, buyer, "X", big.NewInt(10))
	expectRevert(t, err, simulated.ReasonContentUnavailable)
}

func TestIssueWithoutPayment(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(time.Now())
	_, _ = reg.AddContent(ctx, creator, big.NewInt(10), "X", "Doc", big.NewInt(2))

	_, err := reg.IssueLicence(ctx, buyer, "X", model.SecondsPerDay)
	expectRevert(t, err, simulated.ReasonLicenceNotPaid)
	licence, _ := reg.Licence(ctx, buyer, "X")
	if licence.State(time.Now()) != model.LicenceStateNonExistent {
		t.Errorf("Should not have created a licence")
	}

	_, err = reg.Pay(ctx, buyer, "X", big.NewInt(9))
	expectRevert(t, err, simulated.ReasonInsufficientPayment)

	_, err = reg.Pay(ctx, buyer, "X", big.NewInt(10))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !reg.HasPayment(buyer, "X") {
		t.Errorf("Should have a pending payment")
	}
	_, err = reg.IssueLicence(ctx, buyer, "X", model.SecondsPerDay)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	_, err = reg.IssueLicence(ctx, buyer, "X", model.SecondsPerDay)
	expectRevert(t, err, simulated.ReasonLicenceNotPaid)

	licences, _ := reg.LicencesForUser(ctx, buyer)
	if len(licences) != 1 {
		t.Errorf("Should have one licence, got %v", len(licences))
	}
}

func TestEventsInRange(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(time.Now())
	_, _ = reg.AddContent(ctx, creator, big.NewInt(10), "X", "Doc", big.NewInt(2))
	_, _ = reg.SetTitle(ctx, creator, "X", "Doc 2")
	_, _ = reg.Pay(ctx, buyer, "X", big.NewInt(10))

	latest, _ := reg.LatestBlock(ctx)
	if latest != 3 {
		t.Errorf("Should have mined three blocks, got %v", latest)
	}
	events, _ := reg.EventsInRange(ctx, 2, latest)
	if len(events) != 2 {
		t.Fatalf("Should have two events, got %v", len(events))
	}
	if events[0].EventType() != "ContentUpdated" || events[1].EventType() != "PaymentReceived" {
		t.Errorf("Unexpected events %v %v", events[0].EventType(), events[1].EventType())
	}
	if events[1].ContractAddress() != simulated.LicenceManagerAddress {
		t.Errorf("Licence events should carry the licence registry address")
	}
}

func TestIssueFromNonOwner(t *testing.T) {
	ctx := context.Background()
	reg := simulated.NewRegistry(owner, big.NewInt(2), simulated.WithIssuer(creator))
	_, _ = reg.AddContent(ctx, creator, big.NewInt(10), "X", "Doc", big.NewInt(2))
	_, _ = reg.Pay(ctx, buyer, "X", big.NewInt(10))

	_, err := reg.IssueLicence(ctx, buyer, "X", model.SecondsPerDay)
	expectRevert(t, err, simulated.ReasonNotIssuer)
	if !reg.HasPayment(buyer, "X") {
		t.Errorf("Should have kept the pending payment")
	}
	licence, _ := reg.Licence(ctx, buyer, "X")
	if licence.State(time.Now()) != model.LicenceStateNonExistent {
		t.Errorf("Should not have created a licence")
	}

	reg = simulated.NewRegistry(owner, big.NewInt(2), simulated.WithIssuer(owner))
	_, _ = reg.AddContent(ctx, creator, big.NewInt(10), "X", "Doc", big.NewInt(2))
	_, _ = reg.Pay(ctx, buyer, "X", big.NewInt(10))
	if _, err := reg.IssueLicence(ctx, buyer, "X", model.SecondsPerDay); err != nil {
		t.Errorf("Owner should issue: err: %v", err)
	}
}

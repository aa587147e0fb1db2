package model_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/w3licence/licence-gateway/pkg/model"
)

var (
	testHolder = common.HexToAddress("0xDFe273082089bB7f70Ee36Eebcde64832FE97E55")
)

func TestLicenceState(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	licence := model.NewLicence(&model.LicenceParams{
		IssueDate:  issued.Unix(),
		ExpiryDate: issued.Unix() + model.DurationDaysToSecs(30),
		CID:        "bafytest",
		Holder:     testHolder,
		IsValid:    true,
	})
	if licence.DurationSecs() != 2592000 {
		t.Errorf("Should have a 30 day duration: got %v", licence.DurationSecs())
	}
	if licence.State(issued.Add(time.Hour)) != model.LicenceStateValid {
		t.Errorf("Should be valid an hour after issuance")
	}
	if !licence.IsActive(issued.Add(29 * 24 * time.Hour)) {
		t.Errorf("Should be active before expiry")
	}
	expiry := time.Unix(licence.ExpiryDate(), 0)
	if licence.State(expiry) != model.LicenceStateExpired {
		t.Errorf("Should be expired at the expiry timestamp")
	}
	if licence.IsActive(expiry.Add(time.Second)) {
		t.Errorf("Should not be active after expiry")
	}

	revoked := model.NewLicence(&model.LicenceParams{
		IssueDate:  issued.Unix(),
		ExpiryDate: issued.Unix() + model.SecondsPerDay,
		CID:        "bafytest",
		Holder:     testHolder,
		IsValid:    false,
	})
	if revoked.State(issued) != model.LicenceStateRevoked {
		t.Errorf("Should be revoked: got %v", revoked.State(issued))
	}
	if revoked.IsActive(issued) {
		t.Errorf("Revoked licence should not be active")
	}

	empty := model.NewLicence(&model.LicenceParams{})
	if empty.State(issued) != model.LicenceStateNonExistent {
		t.Errorf("Zero licence should not exist: got %v", empty.State(issued))
	}
	var nilLicence *model.Licence
	if nilLicence.State(issued) != model.LicenceStateNonExistent {
		t.Errorf("Nil licence should not exist")
	}
}

func TestContentAccessors(t *testing.T) {
	content := model.NewContent(&model.ContentParams{
		Creator:   testHolder,
		CID:       "bafkreitest",
		Title:     "Doc",
		Available: true,
	})
	if content.Price().Sign() != 0 || content.UsageCount().Sign() != 0 {
		t.Errorf("Should default price and usage count to zero")
	}
	if !content.Exists() {
		t.Errorf("Should exist with a creator and CID")
	}
	if !content.IsCreator(common.HexToAddress(testHolder.Hex())) {
		t.Errorf("Should match the creator")
	}
	if content.FileURL("ipfs.w3s.link") != "https://bafkreitest.ipfs.w3s.link" {
		t.Errorf("Unexpected file URL: %v", content.FileURL("ipfs.w3s.link"))
	}
	if model.ContentFileURL("bafkreitest", "https://dweb.link/") != "https://bafkreitest.dweb.link" {
		t.Errorf("Should strip scheme and trailing slash from the gateway host")
	}
	if model.NewContent(&model.ContentParams{}).Exists() {
		t.Errorf("Zero content should not exist")
	}
}

func TestContentCriteria(t *testing.T) {
	other := common.HexToAddress("0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d")
	disabled := model.NewContent(&model.ContentParams{Creator: testHolder, CID: "a"})
	enabled := model.NewContent(&model.ContentParams{Creator: other, CID: "b", Available: true})

	criteria := &model.ContentCriteria{AvailableOnly: true}
	if criteria.Matches(disabled) || !criteria.Matches(enabled) {
		t.Errorf("Available only criteria should filter disabled content")
	}
	criteria = &model.ContentCriteria{Creator: &testHolder}
	if !criteria.Matches(disabled) || criteria.Matches(enabled) {
		t.Errorf("Creator criteria should match on creator only")
	}
	var nilCriteria *model.ContentCriteria
	if !nilCriteria.Matches(disabled) {
		t.Errorf("Nil criteria should match everything")
	}
}

func TestChainTransactionError(t *testing.T) {
	err := model.NewChainTransactionError("Content not found!")
	if err.Error() != "Transaction failed: Content not found!" {
		t.Errorf("Unexpected error string: %v", err.Error())
	}
	if model.RevertReason(err) != "Content not found!" {
		t.Errorf("Should return the revert reason")
	}
	if model.NewChainTransactionError("").Error() != model.ErrChainTransactionFailed.Error() {
		t.Errorf("Should fall back to the generic message")
	}
}

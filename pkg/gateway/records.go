package gateway

import (
	"github.com/w3licence/licence-gateway/pkg/model"
	"github.com/w3licence/licence-gateway/pkg/utils"
)

// ContentRecord is the client view of a registry record. Amounts are wei
// in decimal strings.
type ContentRecord struct {
	Creator    string `json:"creator"`
	Price      string `json:"price"`
	UsageCount string `json:"usageCount"`
	CID        string `json:"CID"`
	FileURL    string `json:"fileUrl"`
	Title      string `json:"title"`
	Available  bool   `json:"available"`
}

// NewContentRecord returns the client view of content
func NewContentRecord(content *model.Content, gatewayHost string) *ContentRecord {
	return &ContentRecord{
		Creator:    content.Creator().Hex(),
		Price:      content.Price().String(),
		UsageCount: content.UsageCount().String(),
		CID:        content.CID(),
		FileURL:    content.FileURL(gatewayHost),
		Title:      content.Title(),
		Available:  content.Available(),
	}
}

// NewContentRecords returns the client view of a list of content
func NewContentRecords(contents []*model.Content, gatewayHost string) []*ContentRecord {
	records := make([]*ContentRecord, 0, len(contents))
	for _, content := range contents {
		records = append(records, NewContentRecord(content, gatewayHost))
	}
	return records
}

// LicenceRecord is the client view of a licence with formatted timestamps
type LicenceRecord struct {
	IssueDate       int64  `json:"issueDate"`
	ExpiryDate      int64  `json:"expiryDate"`
	IssueTimestamp  string `json:"issueTimestamp"`
	ExpiryTimestamp string `json:"expiryTimestamp"`
	CID             string `json:"CID"`
	UserID          string `json:"userId"`
	IsValid         bool   `json:"isValid"`
}

// NewLicenceRecord returns the client view of a licence
func NewLicenceRecord(licence *model.Licence) *LicenceRecord {
	return &LicenceRecord{
		IssueDate:       licence.IssueDate(),
		ExpiryDate:      licence.ExpiryDate(),
		IssueTimestamp:  utils.FormatSecs(licence.IssueDate()),
		ExpiryTimestamp: utils.FormatSecs(licence.ExpiryDate()),
		CID:             licence.CID(),
		UserID:          licence.Holder().Hex(),
		IsValid:         licence.IsValid(),
	}
}

// LicenceStatus is the entitlement answer for a holder and CID
type LicenceStatus struct {
	Holder     string `json:"holder"`
	CID        string `json:"cid"`
	State      string `json:"state"`
	Active     bool   `json:"active"`
	IssueDate  int64  `json:"issueDate,omitempty"`
	ExpiryDate int64  `json:"expiryDate,omitempty"`
}

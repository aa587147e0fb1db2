// Package model contains the general data models and interfaces for the licence gateway.
package model // import "github.com/w3licence/licence-gateway/pkg/model"

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ContentParams are the params to initialize a new Content
type ContentParams struct {
	Creator    common.Address
	Price      *big.Int
	UsageCount *big.Int
	CID        string
	Title      string
	Available  bool
}

// NewContent is a convenience method to init a Content struct
func NewContent(params *ContentParams) *Content {
	price := params.Price
	if price == nil {
		price = big.NewInt(0)
	}
	usageCount := params.UsageCount
	if usageCount == nil {
		usageCount = big.NewInt(0)
	}
	return &Content{
		creator:    params.Creator,
		price:      new(big.Int).Set(price),
		usageCount: new(big.Int).Set(usageCount),
		cid:        params.CID,
		title:      params.Title,
		available:  params.Available,
	}
}

// Content represents a registered content item as held by the content registry
type Content struct {
	creator common.Address

	price *big.Int

	usageCount *big.Int

	cid string

	title string

	available bool
}

// Creator returns the address that registered the content
func (c *Content) Creator() common.Address {
	return c.creator
}

// Price returns the licence price in wei
func (c *Content) Price() *big.Int {
	return new(big.Int).Set(c.price)
}

// UsageCount returns the number of licence payments made for this content
func (c *Content) UsageCount() *big.Int {
	return new(big.Int).Set(c.usageCount)
}

// CID returns the content identifier
func (c *Content) CID() string {
	return c.cid
}

// Title returns the content title
func (c *Content) Title() string {
	return c.title
}

// Available returns true if the content can be listed and licensed
func (c *Content) Available() bool {
	return c.available
}

// Exists returns false for the zero record the registry hands back for unknown CIDs
func (c *Content) Exists() bool {
	return c.cid != "" && c.creator != (common.Address{})
}

// IsCreator returns true if the given address registered this content
func (c *Content) IsCreator(address common.Address) bool {
	return c.creator == address
}

// FileURL returns the retrieval URL of the content bytes on the given
// storage gateway host
func (c *Content) FileURL(gatewayHost string) string {
	return ContentFileURL(c.cid, gatewayHost)
}

// ContentFileURL builds the subdomain style gateway URL for a CID
func ContentFileURL(cid string, gatewayHost string) string {
	host := strings.TrimSuffix(strings.TrimPrefix(gatewayHost, "https://"), "/")
	return fmt.Sprintf("https://%v.%v", cid, host)
}

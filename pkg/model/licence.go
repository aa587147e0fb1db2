package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// SecondsPerDay is the conversion used for licence durations
	SecondsPerDay = int64(86400)
)

// LicenceState is the derived lifecycle state of a licence
type LicenceState int

const (
	// LicenceStateNonExistent means no licence was ever issued for (holder, cid)
	LicenceStateNonExistent LicenceState = iota
	// LicenceStateValid means the licence is valid and has not expired
	LicenceStateValid
	// LicenceStateExpired means the licence was not revoked but the expiry has passed
	LicenceStateExpired
	// LicenceStateRevoked means the holder revoked the licence
	LicenceStateRevoked
)

// String returns the name of the state
func (s LicenceState) String() string {
	switch s {
	case LicenceStateValid:
		return "valid"
	case LicenceStateExpired:
		return "expired"
	case LicenceStateRevoked:
		return "revoked"
	}
	return "nonexistent"
}

// LicenceParams are the params to initialize a new Licence
type LicenceParams struct {
	IssueDate  int64
	ExpiryDate int64
	CID        string
	Holder     common.Address
	IsValid    bool
}

// NewLicence is a convenience method to init a Licence struct
func NewLicence(params *LicenceParams) *Licence {
	return &Licence{
		issueDate:  params.IssueDate,
		expiryDate: params.ExpiryDate,
		cid:        params.CID,
		holder:     params.Holder,
		isValid:    params.IsValid,
	}
}

// Licence represents a time bounded licence held by an address for a CID
type Licence struct {
	issueDate int64

	expiryDate int64

	cid string

	holder common.Address

	isValid bool
}

// IssueDate returns the issue timestamp in unix seconds
func (l *Licence) IssueDate() int64 {
	return l.issueDate
}

// ExpiryDate returns the expiry timestamp in unix seconds
func (l *Licence) ExpiryDate() int64 {
	return l.expiryDate
}

// CID returns the licensed content identifier
func (l *Licence) CID() string {
	return l.cid
}

// Holder returns the licence holder address
func (l *Licence) Holder() common.Address {
	return l.holder
}

// IsValid returns the registry validity flag. It does not account for expiry.
func (l *Licence) IsValid() bool {
	return l.isValid
}

// DurationSecs returns expiry minus issue date
func (l *Licence) DurationSecs() int64 {
	return l.expiryDate - l.issueDate
}

// State derives the licence state at the given time
func (l *Licence) State(now time.Time) LicenceState {
	if l == nil || l.issueDate == 0 {
		return LicenceStateNonExistent
	}
	if !l.isValid {
		return LicenceStateRevoked
	}
	if now.Unix() >= l.expiryDate {
		return LicenceStateExpired
	}
	return LicenceStateValid
}

// IsActive returns true if the licence grants access at the given time
func (l *Licence) IsActive(now time.Time) bool {
	return l.State(now) == LicenceStateValid
}

// DurationDaysToSecs converts a licence duration in whole days to seconds
func DurationDaysToSecs(days int64) int64 {
	return days * SecondsPerDay
}

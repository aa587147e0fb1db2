package gateway

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/jobs"
	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	// MaxDurationDays bounds a single purchase
	MaxDurationDays = 36500
)

// LicenceGatewayParams configures a LicenceGateway
type LicenceGatewayParams struct {
	Licences  model.LicenceRegistry
	Contents  model.ContentRegistry
	Payments  model.PaymentPersister
	Tracker   *jobs.Tracker
	Publisher model.EventPublisher
}

// NewLicenceGateway returns a new LicenceGateway
func NewLicenceGateway(params *LicenceGatewayParams) *LicenceGateway {
	return &LicenceGateway{
		licences:  params.Licences,
		contents:  params.Contents,
		payments:  params.Payments,
		tracker:   params.Tracker,
		publisher: params.Publisher,
		now:       time.Now,
	}
}

// LicenceGateway sells, lists, revokes and verifies licences
type LicenceGateway struct {
	licences  model.LicenceRegistry
	contents  model.ContentRegistry
	payments  model.PaymentPersister
	tracker   *jobs.Tracker
	publisher model.EventPublisher
	now       func() time.Time
}

// SetClock replaces the clock used for payment timestamps and verification
func (g *LicenceGateway) SetClock(now func() time.Time) {
	g.now = now
}

// ParseDurationDays parses a licence duration of at least one whole day
func ParseDurationDays(raw string) (int64, error) {
	days, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, model.ValidationError("duration must be a whole number of days")
	}
	if days < 1 {
		return 0, model.ValidationError("duration must be at least one day")
	}
	if days > MaxDurationDays {
		return 0, model.ValidationError("duration must be at most %v days", MaxDurationDays)
	}
	return days, nil
}

// BuyLicence pays for content from the session's wallet and has the
// platform issue a licence for the duration. Nothing is sent when the
// input is invalid.
func (g *LicenceGateway) BuyLicence(ctx context.Context, session *model.Session, rawCID string,
	rawDays string) (*model.TxJob, error) {
	err := requireSession(session)
	if err != nil {
		return nil, err
	}
	cid, err := requireCID(rawCID)
	if err != nil {
		return nil, err
	}
	days, err := ParseDurationDays(rawDays)
	if err != nil {
		return nil, err
	}
	content, err := g.contents.Content(ctx, cid)
	if err != nil {
		return nil, err
	}
	price := content.Price()
	if price.Sign() <= 0 {
		return nil, model.ErrInvalidPrice
	}
	holder := session.Address
	existing, err := g.payments.PaymentByKey(holder, cid)
	if err == nil && existing.Status == model.PaymentStatusPaid {
		return nil, model.ValidationError("a payment for %v is awaiting issuance", cid)
	}
	durationSecs := model.DurationDaysToSecs(days)

	return g.tracker.Start(model.TxJobKindBuyLicence, holder, cid,
		func(ctx context.Context, record func(common.Hash)) error {
			payTx, err := submit(ctx, record, func(ctx context.Context) (model.PendingTx, error) {
				return g.licences.Pay(ctx, holder, cid, price)
			})
			if err != nil {
				return err
			}
			payment := model.NewPendingPayment(&model.PendingPaymentParams{
				Holder:       holder,
				CID:          cid,
				Amount:       price,
				DurationSecs: durationSecs,
				PayTxHash:    payTx.Hash(),
				JobID:        jobs.JobIDFromContext(ctx),
				CreatedAt:    g.now(),
			})
			err = g.payments.SavePayment(payment)
			if err != nil {
				log.Errorf("Error saving payment %v: err: %v", payment.Key(), err)
			}
			return g.issue(ctx, payment, record)
		})
}

// IssuePayment issues the licence for a payment that is still paid and
// records the outcome on the payment
func (g *LicenceGateway) IssuePayment(ctx context.Context, payment *model.PendingPayment) error {
	return g.issue(ctx, payment, func(common.Hash) {})
}

func (g *LicenceGateway) issue(ctx context.Context, payment *model.PendingPayment, record func(common.Hash)) error {
	payment.Attempts++
	issueTx, err := submit(ctx, record, func(ctx context.Context) (model.PendingTx, error) {
		return g.licences.IssueLicence(ctx, payment.Holder, payment.CID, payment.DurationSecs)
	})
	payment.UpdatedAt = g.now()
	if err != nil {
		payment.LastError = err.Error()
		if issueTx != nil {
			payment.IssueTxHash = issueTx.Hash()
		}
		if serr := g.payments.SavePayment(payment); serr != nil {
			log.Errorf("Error saving payment %v: err: %v", payment.Key(), serr)
		}
		return err
	}
	payment.Status = model.PaymentStatusIssued
	payment.IssueTxHash = issueTx.Hash()
	payment.LastError = ""
	err = g.payments.SavePayment(payment)
	if err != nil {
		log.Errorf("Error saving payment %v: err: %v", payment.Key(), err)
	}
	event := model.NewGatewayEvent(model.GatewayEventLicenceIssued, payment.Holder, payment.CID, issueTx.Hash())
	event.Data["durationSecs"] = strconv.FormatInt(payment.DurationSecs, 10)
	publish(ctx, g.publisher, event)
	return nil
}

// MarkIssued records that the registry already holds a licence for the payment
func (g *LicenceGateway) MarkIssued(payment *model.PendingPayment) error {
	payment.Status = model.PaymentStatusIssued
	payment.LastError = ""
	payment.UpdatedAt = g.now()
	return g.payments.SavePayment(payment)
}

// MarkRefundDue gives up on issuing a payment and flags it for an operator refund
func (g *LicenceGateway) MarkRefundDue(ctx context.Context, payment *model.PendingPayment) error {
	payment.Status = model.PaymentStatusRefundDue
	payment.UpdatedAt = g.now()
	err := g.payments.SavePayment(payment)
	if err != nil {
		return err
	}
	event := model.NewGatewayEvent(model.GatewayEventPaymentRefundDue, payment.Holder, payment.CID, payment.PayTxHash)
	event.Data["amount"] = payment.Amount.String()
	event.Data["lastError"] = payment.LastError
	publish(ctx, g.publisher, event)
	return nil
}

// ListMine returns every licence issued to the session's wallet
func (g *LicenceGateway) ListMine(ctx context.Context, session *model.Session) ([]*model.Licence, error) {
	err := requireSession(session)
	if err != nil {
		return nil, err
	}
	return g.licences.LicencesForUser(ctx, session.Address)
}

// Revoke revokes the session's licence for a CID
func (g *LicenceGateway) Revoke(ctx context.Context, session *model.Session, rawCID string) (*model.TxJob, error) {
	err := requireSession(session)
	if err != nil {
		return nil, err
	}
	cid, err := requireCID(rawCID)
	if err != nil {
		return nil, err
	}
	holder := session.Address
	return g.tracker.Start(model.TxJobKindRevokeLicence, holder, cid,
		func(ctx context.Context, record func(common.Hash)) error {
			tx, err := submit(ctx, record, func(ctx context.Context) (model.PendingTx, error) {
				return g.licences.RevokeLicence(ctx, holder, cid)
			})
			if err != nil {
				return err
			}
			publish(ctx, g.publisher, model.NewGatewayEvent(model.GatewayEventLicenceRevoked, holder, cid, tx.Hash()))
			return nil
		})
}

// Verify answers whether holder is entitled to cid right now
func (g *LicenceGateway) Verify(ctx context.Context, rawHolder string, rawCID string) (*LicenceStatus, error) {
	if !common.IsHexAddress(rawHolder) {
		return nil, model.ValidationError("invalid holder %v", rawHolder)
	}
	cid, err := requireCID(rawCID)
	if err != nil {
		return nil, err
	}
	holder := common.HexToAddress(rawHolder)
	licence, err := g.licences.Licence(ctx, holder, cid)
	if err != nil {
		return nil, errors.Wrap(err, "licence lookup")
	}
	state := licence.State(g.now())
	return &LicenceStatus{
		Holder:     holder.Hex(),
		CID:        cid,
		State:      state.String(),
		Active:     state == model.LicenceStateValid,
		IssueDate:  licence.IssueDate(),
		ExpiryDate: licence.ExpiryDate(),
	}, nil
}

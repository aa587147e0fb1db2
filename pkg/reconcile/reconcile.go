// Package reconcile retries licence issuance for payments whose second
// transaction never confirmed
package reconcile // import "github.com/w3licence/licence-gateway/pkg/reconcile"

import (
	"context"
	"time"

	log "github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/model"
)

// clockSkew allows for block timestamps behind the gateway clock
const clockSkew = 5 * time.Minute

// PaymentIssuer issues licences for recorded payments
type PaymentIssuer interface {
	IssuePayment(ctx context.Context, payment *model.PendingPayment) error
	MarkIssued(payment *model.PendingPayment) error
	MarkRefundDue(ctx context.Context, payment *model.PendingPayment) error
}

// ReconcilerParams configures a Reconciler. Jobs is optional; with it a
// payment whose buy job is still running within JobTimeout is left alone.
type ReconcilerParams struct {
	Payments   model.PaymentPersister
	Licences   model.LicenceRegistry
	Issuer     PaymentIssuer
	Jobs       model.TxJobPersister
	JobTimeout time.Duration
	Grace      time.Duration
	MaxWindow  time.Duration
}

// NewReconciler returns a new Reconciler
func NewReconciler(params *ReconcilerParams) *Reconciler {
	return &Reconciler{
		payments:   params.Payments,
		licences:   params.Licences,
		issuer:     params.Issuer,
		jobs:       params.Jobs,
		jobTimeout: params.JobTimeout,
		grace:      params.Grace,
		maxWindow:  params.MaxWindow,
		now:        time.Now,
	}
}

// Reconciler walks paid payments and settles each one
type Reconciler struct {
	payments   model.PaymentPersister
	licences   model.LicenceRegistry
	issuer     PaymentIssuer
	jobs       model.TxJobPersister
	jobTimeout time.Duration
	grace      time.Duration
	maxWindow  time.Duration
	now        func() time.Time
}

// Result counts the outcome of a reconcile run
type Result struct {
	Skipped   int
	Issued    int
	Recovered int
	RefundDue int
	Failed    int
}

// SetClock replaces the clock used to age payments
func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

// Reconcile runs one pass over every paid payment. Payments younger than the
// grace period are left to the request that created them.
func (r *Reconciler) Reconcile(ctx context.Context) (*Result, error) {
	payments, err := r.payments.PaymentsByStatus(model.PaymentStatusPaid)
	if err != nil {
		return nil, errors.Wrap(err, "reading paid payments")
	}
	result := &Result{}
	now := r.now()
	for _, payment := range payments {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		age := now.Sub(payment.CreatedAt)
		if age < r.grace || r.jobRunning(payment, now) {
			result.Skipped++
			continue
		}
		current, err := r.payments.PaymentByKey(payment.Holder, payment.CID)
		if err != nil {
			result.Failed++
			log.Errorf("Error rereading payment %v: err: %v", payment.Key(), err)
			continue
		}
		if current.Status != model.PaymentStatusPaid {
			result.Skipped++
			continue
		}
		err = r.settle(ctx, current, age, result)
		if err != nil {
			result.Failed++
			log.Errorf("Error reconciling payment %v: err: %v", payment.Key(), err)
		}
	}
	log.Infof("Reconciled %v payments: %+v", len(payments), *result)
	return result, nil
}

// jobRunning returns true while the buy job that recorded the payment may
// still issue the licence itself. Jobs older than the job timeout are
// treated as dead, such as after a gateway crash.
func (r *Reconciler) jobRunning(payment *model.PendingPayment, now time.Time) bool {
	if r.jobs == nil || payment.JobID == "" {
		return false
	}
	job, err := r.jobs.TxJobByID(payment.JobID)
	if err != nil {
		if err != model.ErrPersisterNoResults {
			log.Errorf("Error reading job %v for payment %v: err: %v", payment.JobID, payment.Key(), err)
		}
		return false
	}
	return !job.Done() && now.Sub(job.CreatedAt) < r.jobTimeout
}

func (r *Reconciler) settle(ctx context.Context, payment *model.PendingPayment, age time.Duration,
	result *Result) error {
	licence, err := r.licences.Licence(ctx, payment.Holder, payment.CID)
	if err != nil {
		return errors.Wrap(err, "reading licence")
	}
	if licence.IsValid() && licence.IssueDate() >= payment.CreatedAt.Add(-clockSkew).Unix() {
		result.Recovered++
		return r.issuer.MarkIssued(payment)
	}
	if r.maxWindow > 0 && age > r.maxWindow {
		result.RefundDue++
		log.Infof("Giving up on payment %v after %v attempts", payment.Key(), payment.Attempts)
		return r.issuer.MarkRefundDue(ctx, payment)
	}
	err = r.issuer.IssuePayment(ctx, payment)
	if err != nil {
		return err
	}
	result.Issued++
	return nil
}

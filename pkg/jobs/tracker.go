// Package jobs runs registry transactions in the background and tracks
// their outcome, so a client disconnect never abandons a broadcast tx
package jobs // import "github.com/w3licence/licence-gateway/pkg/jobs"

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	defaultResultRetention = 10 * time.Minute
)

// TxFunc is the body of a job. record is called with every transaction
// hash the job broadcasts.
type TxFunc func(ctx context.Context, record func(hash common.Hash)) error

// result carries the outcome of a job run by this process. err is only
// read after done is closed.
type jobIDKey struct{}

// JobIDFromContext returns the ID of the job running on ctx, if any
func JobIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(jobIDKey{}).(string) // nolint: errcheck
	return id
}

type result struct {
	done chan struct{}
	err  error
}

// NewTracker returns a Tracker persisting jobs with persister and bounding
// each job by timeout
func NewTracker(persister model.TxJobPersister, timeout time.Duration) *Tracker {
	return &Tracker{
		persister: persister,
		timeout:   timeout,
		retention: defaultResultRetention,
		results:   map[string]*result{},
		now:       time.Now,
	}
}

// Tracker starts and tracks transaction jobs
type Tracker struct {
	persister model.TxJobPersister
	timeout   time.Duration
	retention time.Duration
	now       func() time.Time

	mutex   sync.Mutex
	results map[string]*result
	wg      sync.WaitGroup
}

// Start persists a submitted job and runs fn on a background context
func (t *Tracker) Start(kind model.TxJobKind, address common.Address, cid string, fn TxFunc) (*model.TxJob, error) {
	now := t.now()
	job := &model.TxJob{
		ID:        uuid.NewString(),
		Kind:      kind,
		Address:   address,
		CID:       cid,
		Status:    model.TxJobStatusSubmitted,
		TxHashes:  []common.Hash{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := t.persister.CreateTxJob(job)
	if err != nil {
		return nil, errors.Wrap(err, "create job")
	}
	res := &result{done: make(chan struct{})}
	t.mutex.Lock()
	t.results[job.ID] = res
	t.mutex.Unlock()

	t.wg.Add(1)
	go t.run(job.Copy(), res, fn)
	return job, nil
}

func (t *Tracker) run(job *model.TxJob, res *result, fn TxFunc) {
	defer t.wg.Done()
	ctx, cancel := context.WithTimeout(context.WithValue(context.Background(), jobIDKey{}, job.ID), t.timeout)
	defer cancel()

	var jobMutex sync.Mutex
	record := func(hash common.Hash) {
		jobMutex.Lock()
		defer jobMutex.Unlock()
		job.TxHashes = append(job.TxHashes, hash)
		job.UpdatedAt = t.now()
		err := t.persister.UpdateTxJob(job)
		if err != nil {
			log.Errorf("Error recording tx %v for job %v: err: %v", hash.Hex(), job.ID, err)
		}
	}

	err := fn(ctx, record)

	res.err = err
	jobMutex.Lock()
	if err != nil {
		job.Status = model.TxJobStatusFailed
		job.Error = err.Error()
		log.Infof("Job %v (%v) failed: %v", job.ID, job.Kind, err)
	} else {
		job.Status = model.TxJobStatusConfirmed
		log.Infof("Job %v (%v) confirmed", job.ID, job.Kind)
	}
	job.UpdatedAt = t.now()
	perr := t.persister.UpdateTxJob(job)
	jobMutex.Unlock()
	if perr != nil {
		log.Errorf("Error saving job %v: err: %v", job.ID, perr)
	}

	close(res.done)
	time.AfterFunc(t.retention, func() {
		t.mutex.Lock()
		defer t.mutex.Unlock()
		delete(t.results, job.ID)
	})
}

// Wait blocks until the job is done or ctx expires and returns the job.
// A job that is still running is returned with its submitted status.
// The error is the job's own failure, rebuilt from the saved job when the
// run has not handed over its result yet.
func (t *Tracker) Wait(ctx context.Context, id string) (*model.TxJob, error) {
	t.mutex.Lock()
	res, ok := t.results[id]
	t.mutex.Unlock()
	finished := false
	if ok {
		select {
		case <-res.done:
			finished = true
		case <-ctx.Done():
		}
	}
	job, err := t.persister.TxJobByID(id)
	if err == model.ErrPersisterNoResults {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if finished && job.Done() {
		return job, res.err
	}
	return job, job.Err()
}

// Job returns the current state of a job
func (t *Tracker) Job(id string) (*model.TxJob, error) {
	job, err := t.persister.TxJobByID(id)
	if err == model.ErrPersisterNoResults {
		return nil, model.ErrNotFound
	}
	return job, err
}

// Drain waits for running jobs to finish or ctx to expire
func (t *Tracker) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

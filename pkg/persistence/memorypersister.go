package persistence

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/w3licence/licence-gateway/pkg/model"
)

// NewMemoryPersister returns an empty MemoryPersister
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{
		contents: map[string]*model.Content{},
		jobs:     map[string]*model.TxJob{},
		payments: map[string]*model.PendingPayment{},
	}
}

// MemoryPersister implements the gateway persisters in process memory.
// Everything is lost on restart.
type MemoryPersister struct {
	mutex     sync.RWMutex
	contents  map[string]*model.Content
	lastBlock uint64
	jobs      map[string]*model.TxJob
	payments  map[string]*model.PendingPayment
}

// UpsertIndexedContent implements model.ContentIndexPersister
func (m *MemoryPersister) UpsertIndexedContent(content *model.Content) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.contents[content.CID()] = content
	return nil
}

// IndexedContentByCID implements model.ContentIndexPersister
func (m *MemoryPersister) IndexedContentByCID(cid string) (*model.Content, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	content, ok := m.contents[cid]
	if !ok {
		return nil, model.ErrPersisterNoResults
	}
	return content, nil
}

// IndexedContents implements model.ContentIndexPersister. Results are
// ordered by CID.
func (m *MemoryPersister) IndexedContents(criteria *model.ContentCriteria) ([]*model.Content, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	contents := []*model.Content{}
	for _, content := range m.contents {
		if criteria.Matches(content) {
			contents = append(contents, content)
		}
	}
	sort.Slice(contents, func(i, j int) bool {
		return contents[i].CID() < contents[j].CID()
	})
	return contents, nil
}

// DeleteIndexedContents implements model.ContentIndexPersister
func (m *MemoryPersister) DeleteIndexedContents() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.contents = map[string]*model.Content{}
	return nil
}

// LastBlockForCron implements model.CronPersister
func (m *MemoryPersister) LastBlockForCron() (uint64, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.lastBlock, nil
}

// UpdateLastBlockForCron implements model.CronPersister
func (m *MemoryPersister) UpdateLastBlockForCron(block uint64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.lastBlock = block
	return nil
}

// CreateTxJob implements model.TxJobPersister
func (m *MemoryPersister) CreateTxJob(job *model.TxJob) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobs[job.ID] = job.Copy()
	return nil
}

// UpdateTxJob implements model.TxJobPersister
func (m *MemoryPersister) UpdateTxJob(job *model.TxJob) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return model.ErrPersisterNoResults
	}
	m.jobs[job.ID] = job.Copy()
	return nil
}

// TxJobByID implements model.TxJobPersister
func (m *MemoryPersister) TxJobByID(id string) (*model.TxJob, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, model.ErrPersisterNoResults
	}
	return job.Copy(), nil
}

// SavePayment implements model.PaymentPersister
func (m *MemoryPersister) SavePayment(payment *model.PendingPayment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.payments[payment.Key()] = payment.Copy()
	return nil
}

// PaymentByKey implements model.PaymentPersister
func (m *MemoryPersister) PaymentByKey(holder common.Address, cid string) (*model.PendingPayment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	payment, ok := m.payments[model.PaymentKey(holder, cid)]
	if !ok {
		return nil, model.ErrPersisterNoResults
	}
	return payment.Copy(), nil
}

// PaymentsByStatus implements model.PaymentPersister
func (m *MemoryPersister) PaymentsByStatus(status model.PaymentStatus) ([]*model.PendingPayment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	payments := []*model.PendingPayment{}
	for _, payment := range m.payments {
		if payment.Status == status {
			payments = append(payments, payment.Copy())
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
	return payments, nil
}

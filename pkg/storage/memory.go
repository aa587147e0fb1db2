package storage

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/w3licence/licence-gateway/pkg/model"
)

type storedObject struct {
	data     []byte
	mimeType string
}

// NewMemoryStorage returns a MemoryStorage serving URLs from gatewayHost
func NewMemoryStorage(gatewayHost string) *MemoryStorage {
	return &MemoryStorage{
		gatewayHost: gatewayHost,
		objects:     map[string]*storedObject{},
	}
}

// MemoryStorage is a model.ContentStorage that keeps uploads in memory.
// CIDs are computed locally so they match what IPFS returns for raw leaves.
type MemoryStorage struct {
	gatewayHost string
	mutex       sync.RWMutex
	objects     map[string]*storedObject
}

// Put implements model.ContentStorage
func (s *MemoryStorage) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", errors.Wrap(model.ErrStorageUploadFailed, "empty upload")
	}
	contentCID, err := ComputeCID(data)
	if err != nil {
		return "", errors.Wrap(model.ErrStorageUploadFailed, err.Error())
	}
	stored := make([]byte, len(data))
	copy(stored, data)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.objects[contentCID] = &storedObject{data: stored, mimeType: mimeType}
	return contentCID, nil
}

// URL implements model.ContentStorage
func (s *MemoryStorage) URL(contentCID string) string {
	return FileURL(s.gatewayHost, contentCID)
}

// Get returns stored bytes and their mime type
func (s *MemoryStorage) Get(contentCID string) ([]byte, string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	obj, ok := s.objects[contentCID]
	if !ok {
		return nil, "", model.ErrNotFound
	}
	return obj.data, obj.mimeType, nil
}

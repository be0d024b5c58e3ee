package iocache

import (
	"sync"

	"github.com/huangsam/tagchurn/internal/contract"
)

// CacheStoreManager holds the tag cache and the churn run store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	tags         contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// NewCacheStoreManager wraps already opened stores. Either may be nil.
func NewCacheStoreManager(tags contract.CacheStore, runs contract.RunStore) *CacheStoreManager {
	return &CacheStoreManager{tags: tags, runs: runs}
}

// GetTagStore returns the tag cache store, or nil when caching is off.
func (mgr *CacheStoreManager) GetTagStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.tags
}

// GetRunStore returns the churn run store, or nil when run tracking is off.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}

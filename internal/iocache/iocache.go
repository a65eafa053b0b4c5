// Package iocache persists collected logs so repeated requests skip the SCM client.
package iocache

import (
	"sync"

	"github.com/codemetrics/codemetrics/internal/contract"
)

// CacheStoreManager manages the CacheStore instances of the process.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	log          contract.CacheStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetLogStore returns the log CacheStore.
func (mgr *CacheStoreManager) GetLogStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.log
}

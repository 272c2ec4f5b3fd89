package maintenance

import "sync"

// keyedMutex serializes workflow mutations per asset so unrelated assets'
// operations stay independent. Entries live for the process lifetime; the
// asset population bounds the map.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the mutex for the given asset id and returns its unlock
// function.
func (k *keyedMutex) Lock(assetID int64) func() {
	k.mu.Lock()
	m, ok := k.locks[assetID]
	if !ok {
		m = &sync.Mutex{}
		k.locks[assetID] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

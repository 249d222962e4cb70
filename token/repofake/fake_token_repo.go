package tokenfakerepo

import (
	"context"
	"sync"

	"github.com/DiegoxdGarcia2/smart-condominium/token"
)

var _ token.Store = (*FakeTokenStore)(nil)

// FakeTokenStore keeps the pair in memory and counts operations for tests.
type FakeTokenStore struct {
	pair   token.Pair
	saves  int
	clears int
	lock   sync.RWMutex

	// Optional failures, returned by the matching operation when set.
	LoadErr  error
	SaveErr  error
	ClearErr error
}

func NewFakeTokenStore(initial token.Pair) *FakeTokenStore {
	return &FakeTokenStore{pair: initial}
}

func (ts *FakeTokenStore) Load(_ context.Context) (token.Pair, error) {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	if ts.LoadErr != nil {
		return token.Pair{}, ts.LoadErr
	}
	return ts.pair, nil
}

func (ts *FakeTokenStore) Save(_ context.Context, pair token.Pair) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	if ts.SaveErr != nil {
		return ts.SaveErr
	}
	ts.pair = ts.pair.Merge(pair)
	ts.saves++
	return nil
}

func (ts *FakeTokenStore) Clear(_ context.Context) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	if ts.ClearErr != nil {
		return ts.ClearErr
	}
	ts.pair = token.Pair{}
	ts.clears++
	return nil
}

// Pair returns the stored pair without going through Load.
func (ts *FakeTokenStore) Pair() token.Pair {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.pair
}

func (ts *FakeTokenStore) Saves() int {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.saves
}

func (ts *FakeTokenStore) Clears() int {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.clears
}

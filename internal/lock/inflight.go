package lock

import (
	"sync"

	"github.com/go4org/hashtriemap"
)

type token struct{}

// Inflight tracks keys that currently have a run in progress.
// The zero value is ready to use and safe for concurrent use.
type Inflight struct {
	m hashtriemap.HashTrieMap[string, *token]
}

// TryAcquire marks key as busy. It returns ok=false if key is already
// busy. The returned release func is idempotent.
func (f *Inflight) TryAcquire(key string) (release func(), ok bool) {
	tok := new(token)
	if _, loaded := f.m.LoadOrStore(key, tok); loaded {
		return nil, false
	}
	var once sync.Once
	return func() {
		once.Do(func() { f.m.CompareAndDelete(key, tok) })
	}, true
}

// Busy reports whether key has a run in progress.
func (f *Inflight) Busy(key string) bool {
	_, ok := f.m.Load(key)
	return ok
}

package database

import (
	"sync"
)

// Pool hands out one Store per (dialect, dsn, prefix). It is safe for
// concurrent use; independent sites never share a Store.
type Pool struct {
	mu     sync.Mutex
	stores map[string]*Store
	open   func(Dialect, string, string) (*Store, error)
}

func NewPool() *Pool {
	return &Pool{stores: map[string]*Store{}, open: Open}
}

// Get returns the cached Store for the target or opens a new one.
func (p *Pool) Get(dialect Dialect, dsn, prefix string) (*Store, error) {
	if prefix == "" {
		prefix = DefaultTablePrefix
	}
	key := string(dialect) + "|" + prefix + "|" + dsn

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.stores[key]; ok {
		return s, nil
	}
	s, err := p.open(dialect, dsn, prefix)
	if err != nil {
		return nil, err
	}
	p.stores[key] = s
	return s, nil
}

// Len reports how many stores are open.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stores)
}

// Close closes every store and empties the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for key, s := range p.stores {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
		delete(p.stores, key)
	}
	return first
}

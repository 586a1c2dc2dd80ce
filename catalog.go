package peerwire

import (
	"context"
	"sync"

	"github.com/kent-id/peerwire/types"
)

// Catalog supplies point-in-time snapshots of the registered peers.
type Catalog interface {
	GetPeers(ctx context.Context) (map[string]*types.Peer, error)
}

// StaticCatalog is an in-memory Catalog, typically filled from configuration.
type StaticCatalog struct {
	mu    sync.RWMutex
	peers map[string]*types.Peer
}

func NewStaticCatalog(peers ...*types.Peer) *StaticCatalog {
	c := &StaticCatalog{peers: make(map[string]*types.Peer, len(peers))}
	for _, p := range peers {
		c.peers[p.Name] = p
	}
	return c
}

// Put registers or replaces a peer.
func (c *StaticCatalog) Put(peer *types.Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers[peer.Name] = peer
}

// Delete removes a peer, reporting whether it was registered.
func (c *StaticCatalog) Delete(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.peers[name]
	delete(c.peers, name)
	return ok
}

// GetPeers returns a copy of the registered peers; later changes do not affect it.
func (c *StaticCatalog) GetPeers(_ context.Context) (map[string]*types.Peer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make(map[string]*types.Peer, len(c.peers))
	for name, p := range c.peers {
		snapshot[name] = p
	}
	return snapshot, nil
}

var _ Catalog = (*StaticCatalog)(nil)

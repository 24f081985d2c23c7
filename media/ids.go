package media

import "sync"

// TextureIDs creates and deletes compositor texture ids. It is only used
// on the render goroutine.
type TextureIDs interface {
	Create() uint32
	Delete(id uint32)
}

// IDPool is a TextureIDs that hands out increasing ids and tracks which
// are live.
type IDPool struct {
	mu   sync.Mutex
	next uint32
	live map[uint32]struct{}
}

// NewIDPool returns an empty pool. The first id is 1.
func NewIDPool() *IDPool {
	return &IDPool{live: make(map[uint32]struct{})}
}

// Create returns a fresh id.
func (p *IDPool) Create() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.live[p.next] = struct{}{}
	return p.next
}

// Delete releases id. Unknown ids are ignored.
func (p *IDPool) Delete(id uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.live, id)
}

// Live returns the number of ids created and not deleted.
func (p *IDPool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// IsLive reports whether id was created and not deleted.
func (p *IDPool) IsLive(id uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.live[id]
	return ok
}

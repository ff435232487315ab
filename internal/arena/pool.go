// Package arena provides pooled block allocation with stable addresses.
//
// A [Pool] owns fixed-size blocks of T and recycles them across arenas, so
// building many problems in sequence reuses the same backing memory. An
// [Arena] carves individual slots out of pool blocks; a slot's address stays
// valid until the arena is reset, and existing blocks are never relocated
// when the arena grows.
//
// Neither type is safe for concurrent use. One arena belongs to one problem
// on one goroutine; independent problems get independent arenas.
package arena

// DefaultBlockSize is the number of slots per pool block.
const DefaultBlockSize = 16384

// Pool hands out blocks of T and tracks how many are outstanding.
type Pool[T any] struct {
	free      [][]T
	blockSize int
	inUse     int
}

// NewPool creates a pool whose blocks hold size slots, rounded up to the
// next power of two.
func NewPool[T any](size int) *Pool[T] {
	if size < 1 {
		size = DefaultBlockSize
	}
	return &Pool[T]{blockSize: nextPow2(size)}
}

// BlocksInUse reports how many blocks are held by live arenas. It returns
// to zero once every arena backed by this pool has been reset, which makes
// it usable as a leak check.
func (p *Pool[T]) BlocksInUse() int {
	return p.inUse
}

// BlockSize reports the slot count per block.
func (p *Pool[T]) BlockSize() int {
	return p.blockSize
}

func (p *Pool[T]) acquire() []T {
	p.inUse++
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free = p.free[:n-1]
		return b
	}
	return make([]T, p.blockSize)
}

func (p *Pool[T]) release(b []T) {
	var zero T
	for i := range b {
		b[i] = zero
	}
	p.free = append(p.free, b)
	p.inUse--
}

// Arena allocates values of T out of pool blocks. Addresses returned by
// Alloc remain valid until Reset; growing the arena appends new blocks and
// never moves existing ones.
type Arena[T any] struct {
	pool   *Pool[T]
	blocks [][]T
	used   int // slots used in the last block
	count  int
}

// New creates an arena drawing blocks from pool.
func New[T any](pool *Pool[T]) *Arena[T] {
	return &Arena[T]{pool: pool}
}

// Alloc returns a pointer to a zeroed slot.
func (a *Arena[T]) Alloc() *T {
	if len(a.blocks) == 0 || a.used == a.pool.blockSize {
		a.blocks = append(a.blocks, a.pool.acquire())
		a.used = 0
	}
	block := a.blocks[len(a.blocks)-1]
	slot := &block[a.used]
	a.used++
	a.count++
	return slot
}

// Count reports how many slots have been allocated since the last reset.
func (a *Arena[T]) Count() int {
	return a.count
}

// Reset returns every block to the pool. All pointers previously handed out
// by Alloc are invalid afterwards.
func (a *Arena[T]) Reset() {
	for _, b := range a.blocks {
		a.pool.release(b)
	}
	a.blocks = a.blocks[:0]
	a.used = 0
	a.count = 0
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

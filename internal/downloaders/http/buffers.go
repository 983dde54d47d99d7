package partgethttp

import "sync"

// bufferPool hands out copy buffers of one size so fetchers and the merger
// of a download reuse the same few large allocations.
type bufferPool struct {
	size int
	pool sync.Pool
}

var (
	poolsMu sync.Mutex
	pools   = map[int]*bufferPool{}
)

func poolFor(size int) *bufferPool {
	poolsMu.Lock()
	defer poolsMu.Unlock()
	if bp, ok := pools[size]; ok {
		return bp
	}
	bp := &bufferPool{size: size}
	bp.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	pools[size] = bp
	return bp
}

func (bp *bufferPool) Get() *[]byte {
	return bp.pool.Get().(*[]byte)
}

func (bp *bufferPool) Put(buf *[]byte) {
	if cap(*buf) != bp.size {
		return
	}
	*buf = (*buf)[:bp.size]
	bp.pool.Put(buf)
}

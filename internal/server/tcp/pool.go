package tcp

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/indigo-web/liso/config"
	"golang.org/x/sys/unix"
)

var ErrPoolFull = errors.New("connection pool is full")

// Session is whatever runs on top of an admitted connection.
type Session interface {
	// Serve processes exactly one request and reports whether the connection must
	// be closed afterward.
	Serve() (closing bool)
	// Buffered returns the number of already received, but not yet processed bytes.
	Buffered() int
	Close() error
}

// Conn is an admitted connection, occupying a slot in the pool.
type Conn struct {
	Slot    int
	FD      int
	Session Session
}

// Snapshot is the result of a single readiness wait.
type Snapshot struct {
	// Listener is set if there's a connection waiting to be accepted.
	Listener bool
	// Ready holds slots of the connections ready to be read, in ascending order.
	Ready []int
}

// Pool is a bounded table of connections. A slot is addressed by its index, which
// is unrelated to the descriptor value.
type Pool struct {
	listener int
	capacity int
	conns    []*Conn
	free     slotHeap
	live     int
	full     bool
	pollfds  []unix.PollFd
	slots    []int
	ready    []int
}

// NewPool returns a pool, watching the listening socket listener along with the
// connections. Slots are allocated lazily.
func NewPool(listener, capacity int) *Pool {
	return &Pool{
		listener: listener,
		capacity: capacity,
	}
}

// Capacity returns cfg.MaxConns if set. Otherwise, the capacity is derived from the
// soft limit of open descriptors.
func Capacity(cfg config.NET) (int, error) {
	if cfg.MaxConns > 0 {
		return cfg.MaxConns, nil
	}

	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		return 0, fmt.Errorf("getrlimit: %w", err)
	}

	capacity := int(min(rlim.Cur, math.MaxInt32)) - cfg.ConnsMargin
	if capacity < 1 {
		return 0, fmt.Errorf("descriptors limit %d leaves no room for connections", rlim.Cur)
	}

	return capacity, nil
}

// Admits reports whether one more connection fits. If it doesn't, the pool is
// flagged as full until a slot is freed.
func (p *Pool) Admits() bool {
	if p.live >= p.capacity {
		p.full = true
		return false
	}

	return true
}

// Add places the connection into the lowest free slot. If there's none, ErrPoolFull
// is returned.
func (p *Pool) Add(fd int, session Session) (*Conn, error) {
	if !p.Admits() {
		return nil, ErrPoolFull
	}

	var slot int
	if p.free.Len() > 0 {
		slot = heap.Pop(&p.free).(int)
	} else {
		slot = len(p.conns)
		p.conns = append(p.conns, nil)
	}

	conn := &Conn{
		Slot:    slot,
		FD:      fd,
		Session: session,
	}
	p.conns[slot] = conn
	p.live++

	return conn, nil
}

// Remove closes the connection and frees its slot. Removing a free slot is a no-op.
func (p *Pool) Remove(slot int) error {
	conn := p.Get(slot)
	if conn == nil {
		return nil
	}

	p.conns[slot] = nil
	heap.Push(&p.free, slot)
	p.live--
	p.full = false

	return conn.Session.Close()
}

// Get returns the connection occupying the slot, or nil.
func (p *Pool) Get(slot int) *Conn {
	if slot < 0 || slot >= len(p.conns) {
		return nil
	}

	return p.conns[slot]
}

// Len returns the number of live connections.
func (p *Pool) Len() int {
	return p.live
}

func (p *Pool) Cap() int {
	return p.capacity
}

// Full reports whether the last admission failed and no slot was freed since.
func (p *Pool) Full() bool {
	return p.full
}

// HighWater returns the highest slot ever allocated, or -1 if none was.
func (p *Pool) HighWater() int {
	return len(p.conns) - 1
}

// Wait blocks for at most timeout until either the listener or any connection
// becomes readable. Connections holding unprocessed data are ready right away, so
// the wait isn't performed at all then. An interrupted wait results in an empty
// snapshot.
//
// The returned snapshot is valid until the next call.
func (p *Pool) Wait(timeout time.Duration) (Snapshot, error) {
	p.pollfds = append(p.pollfds[:0], unix.PollFd{
		Fd:     int32(p.listener),
		Events: unix.POLLIN,
	})
	p.slots = p.slots[:0]
	p.ready = p.ready[:0]

	for slot, conn := range p.conns {
		switch {
		case conn == nil:
		case conn.Session.Buffered() > 0:
			p.ready = append(p.ready, slot)
		default:
			p.pollfds = append(p.pollfds, unix.PollFd{
				Fd:     int32(conn.FD),
				Events: unix.POLLIN,
			})
			p.slots = append(p.slots, slot)
		}
	}

	msec := int(timeout.Milliseconds())
	if len(p.ready) > 0 {
		msec = 0
	}

	n, err := unix.Poll(p.pollfds, msec)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return Snapshot{}, nil
		}

		return Snapshot{}, fmt.Errorf("poll: %w", err)
	}

	var snapshot Snapshot
	if n > 0 {
		snapshot.Listener = p.pollfds[0].Revents != 0
		for i, pfd := range p.pollfds[1:] {
			// hang-ups and errors are reported as readiness too, so the following
			// read discovers them
			if pfd.Revents != 0 {
				p.ready = append(p.ready, p.slots[i])
			}
		}

		slices.Sort(p.ready)
	}

	snapshot.Ready = p.ready

	return snapshot, nil
}

// Close closes all the connections.
func (p *Pool) Close() {
	for slot := range p.conns {
		_ = p.Remove(slot)
	}
}

// slotHeap is a min-heap of free slots.
type slotHeap []int

func (h slotHeap) Len() int           { return len(h) }
func (h slotHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h slotHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *slotHeap) Push(x any) {
	*h = append(*h, x.(int))
}

func (h *slotHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]

	return x
}

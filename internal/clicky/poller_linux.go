//go:build linux

// ABOUTME: Non-blocking epoll harvester of key events
// ABOUTME: Applies the registry journal and aggregates event ages per poll
package clicky

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	maxReady  = 16
	maxEvents = 64
)

// Poller harvests key events from the devices journaled by a Registry.
// It is not safe for concurrent use; the audio goroutine owns it and it
// never logs. Devices that hang up are handed back through
// Registry.MarkDead.
type Poller struct {
	registry *Registry
	epfd     int
	fds      map[int]struct{}

	ready  []unix.EpollEvent
	events []inputEvent
	buf    []byte
	col    collector
	failed []Handle

	stale atomic.Uint64

	clock func() unix.Timespec
}

// NewPoller creates the epoll set
func NewPoller(registry *Registry) (*Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("failed to create epoll: %w", err)
	}

	p := &Poller{
		registry: registry,
		epfd:     epfd,
		fds:      make(map[int]struct{}),
		ready:    make([]unix.EpollEvent, maxReady),
		events:   make([]inputEvent, maxEvents),
		failed:   make([]Handle, 0, maxReady),
		clock:    realtime,
	}
	p.buf = unsafe.Slice((*byte)(unsafe.Pointer(&p.events[0])), len(p.events)*inputEventSize)
	return p, nil
}

func realtime() unix.Timespec {
	var ts unix.Timespec
	_ = unix.ClockGettime(unix.CLOCK_REALTIME, &ts)
	return ts
}

// apply runs under the registry lock. Handles that cannot be watched are
// reported dead once the lock is released.
func (p *Poller) apply(added, removed []Handle) {
	for _, h := range added {
		fd := int(h)
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			p.failed = append(p.failed, h)
			continue
		}
		p.fds[fd] = struct{}{}
	}
	for _, h := range removed {
		fd := int(h)
		if _, ok := p.fds[fd]; ok {
			_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
			delete(p.fds, fd)
		}
		unix.Close(fd)
	}
}

func (p *Poller) applyJournal() {
	p.registry.Apply(p.apply)
	for _, h := range p.failed {
		p.registry.MarkDead(h)
	}
	p.failed = p.failed[:0]
}

// unwatch stops polling a device that hung up. The registry closes it.
func (p *Poller) unwatch(fd int) {
	_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	delete(p.fds, fd)
	p.registry.MarkDead(Handle(fd))
}

// WhenClicked reports the span of key events seen since the last call
func (p *Poller) WhenClicked() (Timestamp, bool) {
	p.applyJournal()
	p.col.reset()

	n, err := unix.EpollWait(p.epfd, p.ready, 0)
	if err != nil {
		return Timestamp{}, false
	}

	now := p.clock()
	for i := 0; i < n; i++ {
		fd := int(p.ready[i].Fd)
		alive := p.drain(fd, now)
		if !alive || p.ready[i].Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			p.unwatch(fd)
		}
	}

	if p.col.stale > 0 {
		p.stale.Add(uint64(p.col.stale))
	}
	return p.col.result()
}

// StaleEvents counts key events dropped for being too old
func (p *Poller) StaleEvents() uint64 {
	return p.stale.Load()
}

// drain reads every pending event and reports whether the device is still
// usable. A read error other than EAGAIN, or end of file, means it is gone.
func (p *Poller) drain(fd int, now unix.Timespec) bool {
	for {
		n, err := unix.Read(fd, p.buf)
		if err != nil {
			return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR)
		}
		if n <= 0 {
			return false
		}
		for i := 0; i < n/inputEventSize; i++ {
			ev := &p.events[i]
			if ev.Type != evKey || (ev.Value != keyPress && ev.Value != keyRelease) {
				continue
			}
			p.col.add(age(now, ev.Time))
		}
		if n < len(p.buf) {
			return true
		}
	}
}

func age(now unix.Timespec, t unix.Timeval) time.Duration {
	sec := int64(now.Sec) - int64(t.Sec)
	nsec := int64(now.Nsec) - int64(t.Usec)*1000
	return time.Duration(sec)*time.Second + time.Duration(nsec)
}

// Close releases every device the registry still holds and the epoll set.
// The registry goroutine must have stopped.
func (p *Poller) Close() error {
	p.applyJournal()
	p.registry.closeAll(func(h Handle) { unix.Close(int(h)) })
	p.fds = map[int]struct{}{}
	return unix.Close(p.epfd)
}

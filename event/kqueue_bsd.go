//go:build darwin || freebsd

package event

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

func init() {
	register(BackendKqueue, newKqueueBackend)
	autoBackend = BackendKqueue
}

// kqueueBackend registers one filter per direction. The last mask per fd is
// remembered so modify can drop filters that are no longer wanted.
type kqueueBackend struct {
	kq       int
	interest map[int]Mask
	events   []unix.Kevent_t
	merged   map[int]int
}

func newKqueueBackend(maxEvents int) (backend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	unix.CloseOnExec(kq)
	return &kqueueBackend{
		kq:       kq,
		interest: make(map[int]Mask, maxEvents),
		events:   make([]unix.Kevent_t, maxEvents),
		merged:   make(map[int]int, maxEvents),
	}, nil
}

func (b *kqueueBackend) kind() BackendKind { return BackendKqueue }

// kqueue has no separate out-of-band filter; OOB rides on the read filter.
func kqueueChanges(fd int, mask Mask, flags int) []unix.Kevent_t {
	var changes []unix.Kevent_t
	if mask&(Read|OOB) != 0 {
		var k unix.Kevent_t
		unix.SetKevent(&k, fd, unix.EVFILT_READ, flags)
		changes = append(changes, k)
	}
	if mask&Write != 0 {
		var k unix.Kevent_t
		unix.SetKevent(&k, fd, unix.EVFILT_WRITE, flags)
		changes = append(changes, k)
	}
	return changes
}

func (b *kqueueBackend) apply(changes []unix.Kevent_t, op string) error {
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(b.kq, changes, nil, nil)
	return os.NewSyscallError(op, err)
}

func (b *kqueueBackend) add(fd int, mask Mask) error {
	return b.modify(fd, mask)
}

func (b *kqueueBackend) modify(fd int, mask Mask) error {
	old := b.interest[fd]
	if gone := old &^ mask; gone != None {
		// deleting a filter that is already gone is harmless
		_ = b.apply(kqueueChanges(fd, gone, unix.EV_DELETE), "kevent delete")
	}
	if err := b.apply(kqueueChanges(fd, mask, unix.EV_ADD|unix.EV_ENABLE), "kevent add"); err != nil {
		return err
	}
	b.interest[fd] = mask
	return nil
}

func (b *kqueueBackend) del(fd int) error {
	old, ok := b.interest[fd]
	if !ok {
		return nil
	}
	delete(b.interest, fd)
	_ = b.apply(kqueueChanges(fd, old, unix.EV_DELETE), "kevent delete")
	return nil
}

func (b *kqueueBackend) wait(timeout time.Duration, ready []Elem) (int, error) {
	events := b.events
	if len(ready) < len(events) {
		events = events[:len(ready)]
	}
	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	n, err := unix.Kevent(b.kq, nil, events, &ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, errInterrupted
		}
		return 0, os.NewSyscallError("kevent wait", err)
	}

	// read and write filters fire as separate kevents; fold them into one
	// element per fd
	for k := range b.merged {
		delete(b.merged, k)
	}
	count := 0
	for i := 0; i < n; i++ {
		ev := &events[i]
		fd := int(ev.Ident)
		var m Mask
		switch ev.Filter {
		case unix.EVFILT_READ:
			m = Read
		case unix.EVFILT_WRITE:
			m = Write
		}
		if ev.Flags&unix.EV_EOF != 0 {
			m |= Close
		}
		if ev.Flags&unix.EV_ERROR != 0 {
			m |= Error
		}
		if idx, ok := b.merged[fd]; ok {
			ready[idx].Mask |= m
			continue
		}
		b.merged[fd] = count
		ready[count] = Elem{Fd: fd, Mask: m}
		count++
	}
	return count, nil
}

func (b *kqueueBackend) close() error {
	return os.NewSyscallError("close", unix.Close(b.kq))
}

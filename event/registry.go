package event

import (
	"time"

	"github.com/fzft/go-mock-httpd/dlist"
)

// connNode is one monitored socket. It is linked into exactly one chain,
// either a bucket of the table or the accept list.
type connNode struct {
	fd    int
	mask  Mask
	start time.Time
	link  *dlist.Node[*connNode]
}

// registry is the bucketed table of data sockets plus the unbucketed list of
// listener sockets. It is not safe for concurrent use; the engine lock
// guards it.
type registry struct {
	buckets []*dlist.List[*connNode]
	accepts *dlist.List[*connNode]
	count   int
}

func bucketCount(maxEvents int) int {
	n := 16
	for n < maxEvents/4 {
		n <<= 1
	}
	return n
}

func newRegistry(maxEvents int) *registry {
	r := &registry{
		buckets: make([]*dlist.List[*connNode], bucketCount(maxEvents)),
		accepts: dlist.New[*connNode](),
	}
	for i := range r.buckets {
		r.buckets[i] = dlist.New[*connNode]()
	}
	return r
}

func (r *registry) chain(fd int) *dlist.List[*connNode] {
	return r.buckets[fd%len(r.buckets)]
}

func find(l *dlist.List[*connNode], fd int) *connNode {
	var found *connNode
	l.Each(func(n *dlist.Node[*connNode]) bool {
		if n.Value.fd == fd {
			found = n.Value
			return false
		}
		return true
	})
	return found
}

func (r *registry) lookup(fd int) *connNode {
	return find(r.chain(fd), fd)
}

func (r *registry) insert(fd int, mask Mask, now time.Time) *connNode {
	n := &connNode{fd: fd, mask: mask, start: now}
	n.link = r.chain(fd).PushBack(n)
	r.count++
	return n
}

func (r *registry) remove(n *connNode) {
	if r.chain(n.fd).Remove(n.link) == nil {
		r.count--
	}
}

func (r *registry) lookupAccept(fd int) *connNode {
	return find(r.accepts, fd)
}

func (r *registry) insertAccept(fd int, now time.Time) *connNode {
	n := &connNode{fd: fd, mask: Read, start: now}
	n.link = r.accepts.PushBack(n)
	return n
}

func (r *registry) removeAccept(n *connNode) {
	_ = r.accepts.Remove(n.link)
}

// expire unlinks and returns every node idle for longer than keepalive and
// every node whose interest mask is empty.
func (r *registry) expire(now time.Time, keepalive time.Duration) []*connNode {
	var out []*connNode
	for _, b := range r.buckets {
		if b.Len() == 0 {
			continue
		}
		b.Each(func(n *dlist.Node[*connNode]) bool {
			c := n.Value
			if c.mask == None || now.Sub(c.start) > keepalive {
				_ = b.Remove(n)
				r.count--
				out = append(out, c)
			}
			return true
		})
	}
	return out
}

// drain unlinks everything and returns the data and listener fds.
func (r *registry) drain() (data, accepts []int) {
	for _, b := range r.buckets {
		b.Each(func(n *dlist.Node[*connNode]) bool {
			data = append(data, n.Value.fd)
			return true
		})
		b.Empty()
	}
	r.accepts.Each(func(n *dlist.Node[*connNode]) bool {
		accepts = append(accepts, n.Value.fd)
		return true
	})
	r.accepts.Empty()
	r.count = 0
	return data, accepts
}

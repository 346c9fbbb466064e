package httpwire

import "strings"

// HeaderNode is one header line. Nodes are linked newest first.
type HeaderNode struct {
	Name  string
	Value string
	Next  *HeaderNode
}

// Headers is a singly linked header list. Iteration yields the most recently
// added header first, which is also the order packers write them in.
type Headers struct {
	head *HeaderNode
	n    int
}

func (h *Headers) Len() int { return h.n }

func (h *Headers) Front() *HeaderNode { return h.head }

// Add prepends a header, keeping any existing ones with the same name.
func (h *Headers) Add(name, value string) {
	h.head = &HeaderNode{Name: name, Value: value, Next: h.head}
	h.n++
}

// Set replaces the value of the newest header called name, or adds it.
func (h *Headers) Set(name, value string) {
	for n := h.head; n != nil; n = n.Next {
		if strings.EqualFold(n.Name, name) {
			n.Value = value
			return
		}
	}
	h.Add(name, value)
}

// Get returns the value of the newest header called name, compared case
// insensitively.
func (h *Headers) Get(name string) (string, bool) {
	for n := h.head; n != nil; n = n.Next {
		if strings.EqualFold(n.Name, name) {
			return n.Value, true
		}
	}
	return "", false
}

// Values returns every value for name, newest first.
func (h *Headers) Values(name string) []string {
	var out []string
	for n := h.head; n != nil; n = n.Next {
		if strings.EqualFold(n.Name, name) {
			out = append(out, n.Value)
		}
	}
	return out
}

// Del removes every header called name and reports whether any existed.
func (h *Headers) Del(name string) bool {
	found := false
	for p := &h.head; *p != nil; {
		if strings.EqualFold((*p).Name, name) {
			*p = (*p).Next
			h.n--
			found = true
			continue
		}
		p = &(*p).Next
	}
	return found
}

func (h *Headers) Each(fn func(name, value string)) {
	for n := h.head; n != nil; n = n.Next {
		fn(n.Name, n.Value)
	}
}

func (h *Headers) Reset() {
	h.head = nil
	h.n = 0
}

// hasToken reports whether a comma separated header value lists token.
func hasToken(value, token string) bool {
	for _, part := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}

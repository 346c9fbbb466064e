package httpwire

const (
	MethodGet      = "GET"
	MethodHead     = "HEAD"
	MethodPost     = "POST"
	MethodPut      = "PUT"
	MethodDelete   = "DELETE"
	MethodOptions  = "OPTIONS"
	MethodTrace    = "TRACE"
	MethodPatch    = "PATCH"
	MethodMove     = "MOVE"
	MethodCopy     = "COPY"
	MethodLink     = "LINK"
	MethodUnlink   = "UNLINK"
	MethodPurge    = "PURGE"
	MethodLock     = "LOCK"
	MethodUnlock   = "UNLOCK"
	MethodPropfind = "PROPFIND"
	MethodView     = "VIEW"
)

var methods = []string{
	MethodGet, MethodHead, MethodPost, MethodPut, MethodDelete, MethodOptions,
	MethodTrace, MethodPatch, MethodMove, MethodCopy, MethodLink, MethodUnlink,
	MethodPurge, MethodLock, MethodUnlock, MethodPropfind, MethodView,
}

// maxMethodLen bounds the command token before the table lookup.
const maxMethodLen = 8

// lookupMethod matches a command token case insensitively.
func lookupMethod(tok []byte) (string, bool) {
	for _, m := range methods {
		if len(m) != len(tok) {
			continue
		}
		match := true
		for i := 0; i < len(tok); i++ {
			if upper(tok[i]) != m[i] {
				match = false
				break
			}
		}
		if match {
			return m, true
		}
	}
	return "", false
}

// bodyMethod reports methods whose requests carry a body that must be framed.
func bodyMethod(m string) bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// LookupMethod returns the canonical spelling of a known method name.
func LookupMethod(name string) (string, bool) {
	if len(name) > maxMethodLen {
		return "", false
	}
	return lookupMethod([]byte(name))
}

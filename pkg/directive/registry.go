package directive

import (
	"log"
)

// HandlerFunc handles one directive. ctx is the value given at registration.
// Returning true stops the parse immediately.
type HandlerFunc[C any] func(key, value string, ctx C, line int) (interrupt bool)

// Entry is one registered handler.
type Entry[C any] struct {
	Key     string
	Context C
	Handler HandlerFunc[C]
}

// Registry maps directive keys to handlers in registration order, plus one
// fallback for keys nobody registered.
//
// A Registry is filled before parsing and only read while parsing, so one
// Registry may back several Readers as long as no Register or SetUnknown call
// runs concurrently with a parse.
type Registry[C any] struct {
	entries    []Entry[C]
	unknown    Entry[C]
	hasUnknown bool
	logger     *log.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{}
}

// SetLogger sets the logger used for registration warnings.
// A nil logger routes warnings to the standard logger.
func (r *Registry[C]) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Registry[C]) logf(format string, v ...any) {
	if r.logger != nil {
		r.logger.Printf(format, v...)
		return
	}
	log.Printf(format, v...)
}

// Register appends a handler for key. Keys are case-sensitive. Registering a
// key twice keeps both entries; only the first one is ever dispatched.
func (r *Registry[C]) Register(key string, ctx C, h HandlerFunc[C]) {
	for i, e := range r.entries {
		if e.Key == key {
			r.logf("directive: key %q registered again at index=%d; entry index=%d keeps precedence", key, len(r.entries), i)
			break
		}
	}
	r.entries = append(r.entries, Entry[C]{Key: key, Context: ctx, Handler: h})
}

// SetUnknown sets the fallback handler for unregistered keys, replacing any
// previous one.
func (r *Registry[C]) SetUnknown(ctx C, h HandlerFunc[C]) {
	r.unknown = Entry[C]{Context: ctx, Handler: h}
	r.hasUnknown = h != nil
}

// Lookup returns the first entry registered for key. When none matches it
// returns the fallback entry (if any) and false.
func (r *Registry[C]) Lookup(key string) (Entry[C], bool) {
	for _, e := range r.entries {
		if e.Key == key {
			return e, true
		}
	}
	if r.hasUnknown {
		return Entry[C]{Key: key, Context: r.unknown.Context, Handler: r.unknown.Handler}, false
	}
	return Entry[C]{}, false
}

// Keys lists registered keys in registration order, duplicates included.
func (r *Registry[C]) Keys() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Key)
	}
	return out
}

// Len returns the number of registered entries.
func (r *Registry[C]) Len() int {
	return len(r.entries)
}

// dispatch runs the handler for key and reports whether it asked to stop.
func (r *Registry[C]) dispatch(key, value string, line int) bool {
	e, _ := r.Lookup(key)
	if e.Handler == nil {
		return false
	}
	return e.Handler(key, value, e.Context, line)
}

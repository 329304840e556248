// Package directive reads "KEY = VALUE" assignment files and dispatches every
// assignment to the handler registered for its key.
//
// Input seen by the reader:
//
//	# this is a comment
//	COMMAND_ONE = this is value  ; this is ignored
//	COMMAND_two = ETH 1 0 20 15    # this is ignored
//	cOmMaNd_tHrEe = dummy
//
// '#' and ';' start a comment that runs to the end of the line. The key is the
// trimmed text before the first '='; the value is everything after it up to
// the comment, whitespace preserved. Lines without '=' or with an empty key
// are ignored. Keys are matched case-sensitively in registration order; keys
// nobody registered go to the unknown handler, or are dropped when there is
// none.
//
// A handler returning true interrupts the parse: no further line is read and
// Parse reports false.
//
// A Reader is not safe for concurrent use. Readers may share one Registry
// once registration is complete.
package directive

import (
	"io"
	"os"
	"strings"

	"github.com/r9s-ai/open-line-parsers/pkg/lineio"
	"github.com/r9s-ai/open-line-parsers/pkg/strutil"
)

const (
	// CommentMarker starts a comment.
	CommentMarker = '#'
	// AltCommentMarker also starts a comment.
	AltCommentMarker = ';'
	// Assign separates key and value.
	Assign = '='

	commentMarkers = "#;"

	// DefaultMaxLineBytes bounds a line unless SetMaxLineBytes says otherwise.
	DefaultMaxLineBytes = 1024
)

// State is the parse state of a Reader.
type State int

const (
	// StateReading is the state while lines are being consumed.
	StateReading State = iota
	// StateStopped is entered once input is exhausted or a handler interrupts.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Registrar fills a reader with a set of handlers.
type Registrar[C any] interface {
	RegisterDirectives(p *Reader[C])
}

// RegistrarFunc adapts a function to Registrar.
type RegistrarFunc[C any] func(p *Reader[C])

// RegisterDirectives calls fn(p).
func (fn RegistrarFunc[C]) RegisterDirectives(p *Reader[C]) { fn(p) }

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Reader parses directive streams against a Registry.
type Reader[C any] struct {
	noCopy noCopy

	reg          *Registry[C]
	global       C
	maxLineBytes int

	line      int
	truncated int
	state     State
}

// NewReader returns a Reader backed by reg. A nil reg gets a fresh Registry.
func NewReader[C any](reg *Registry[C]) *Reader[C] {
	if reg == nil {
		reg = NewRegistry[C]()
	}
	return &Reader[C]{
		reg:          reg,
		maxLineBytes: DefaultMaxLineBytes,
		state:        StateStopped,
	}
}

// Registry returns the registry backing the reader.
func (p *Reader[C]) Registry() *Registry[C] { return p.reg }

// Register is shorthand for p.Registry().Register.
func (p *Reader[C]) Register(key string, ctx C, h HandlerFunc[C]) {
	p.reg.Register(key, ctx, h)
}

// SetUnknown is shorthand for p.Registry().SetUnknown.
func (p *Reader[C]) SetUnknown(ctx C, h HandlerFunc[C]) {
	p.reg.SetUnknown(ctx, h)
}

// Init stores global as the reader-wide context and lets r register its
// handlers. r may read the context back through Global.
func (p *Reader[C]) Init(global C, r Registrar[C]) {
	p.global = global
	if r != nil {
		r.RegisterDirectives(p)
	}
}

// Global returns the context stored by Init.
func (p *Reader[C]) Global() C { return p.global }

// SetMaxLineBytes changes the line bound; n <= 0 disables it.
func (p *Reader[C]) SetMaxLineBytes(n int) { p.maxLineBytes = n }

// Line returns the number of the last line read.
func (p *Reader[C]) Line() int { return p.line }

// State returns the parse state.
func (p *Reader[C]) State() State { return p.state }

// Truncated returns how many lines of the last parse exceeded the bound.
func (p *Reader[C]) Truncated() int { return p.truncated }

// Split extracts the key and value of one line. ok is false for lines that
// carry no directive: comment lines, lines without '=' and lines whose key is
// blank.
func Split(line string) (key, value string, ok bool) {
	if line != "" && (line[0] == CommentMarker || line[0] == AltCommentMarker) {
		return "", "", false
	}
	text := strutil.StripComments(line, commentMarkers)
	i := strings.IndexByte(text, Assign)
	if i < 0 {
		return "", "", false
	}
	key = strutil.Trim(text[:i])
	if key == "" {
		return "", "", false
	}
	return key, text[i+1:], true
}

// Parse reads src line by line and dispatches every directive. It returns true
// when src was consumed to its end and false when a handler interrupted the
// parse or reading failed; err carries the read error.
func (p *Reader[C]) Parse(src io.Reader) (bool, error) {
	p.line = 0
	p.truncated = 0
	p.state = StateReading
	defer func() { p.state = StateStopped }()

	s := lineio.NewScanner(src, p.maxLineBytes)
	for s.Scan() {
		p.line = s.Line()
		if s.Truncated() {
			p.truncated++
		}
		key, value, ok := Split(s.Text())
		if !ok {
			continue
		}
		if p.reg.dispatch(key, value, p.line) {
			return false, nil
		}
	}
	if err := s.Err(); err != nil {
		return false, err
	}
	return true, nil
}

// ParseFile is Parse over the file at path. The file is closed before
// returning; a file that cannot be opened yields false and the open error.
func (p *Reader[C]) ParseFile(path string) (bool, error) {
	p.line = 0
	p.truncated = 0
	// #nosec G304 -- path is chosen by the caller.
	f, err := os.Open(path)
	if err != nil {
		p.state = StateStopped
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	return p.Parse(f)
}

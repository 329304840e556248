package directive

import (
	"io"
	"os"
	"slices"
)

// Assignment is one directive seen during a Collect.
type Assignment struct {
	Line  int    `json:"line" yaml:"line"`
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
	// Known is false for keys that reached the unknown handler.
	Known bool `json:"known" yaml:"known"`
}

// Result is what Collect gathered from one stream.
type Result struct {
	Assignments []Assignment `json:"directives" yaml:"directives"`
	// Completed is false when a stop key interrupted the parse.
	Completed bool `json:"completed" yaml:"completed"`
	StoppedAt int  `json:"stopped_at,omitempty" yaml:"stopped_at,omitempty"`
	Lines     int  `json:"line_count" yaml:"line_count"`
	Truncated int  `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// CollectOptions selects the keys a Collect registers.
type CollectOptions struct {
	// Known keys are recorded as known assignments.
	Known []string
	// Stop keys are recorded, then interrupt the parse.
	Stop []string
	// MaxLineBytes bounds lines; 0 keeps DefaultMaxLineBytes.
	MaxLineBytes int
}

// NewCollector builds a Reader that appends every directive to res. Stop keys
// take precedence over known keys with the same name.
func NewCollector(opts CollectOptions, res *Result) *Reader[*Result] {
	p := NewReader[*Result](nil)
	if opts.MaxLineBytes != 0 {
		p.SetMaxLineBytes(opts.MaxLineBytes)
	}
	record := func(known, stop bool) HandlerFunc[*Result] {
		return func(key, value string, r *Result, line int) bool {
			r.Assignments = append(r.Assignments, Assignment{Line: line, Key: key, Value: value, Known: known})
			if stop {
				r.StoppedAt = line
			}
			return stop
		}
	}
	for _, k := range opts.Stop {
		p.Register(k, res, record(true, true))
	}
	for _, k := range opts.Known {
		if slices.Contains(opts.Stop, k) {
			continue
		}
		p.Register(k, res, record(true, false))
	}
	p.SetUnknown(res, record(false, false))
	p.Init(res, nil)
	return p
}

// Collect parses src and returns every directive in input order.
func Collect(src io.Reader, opts CollectOptions) (Result, error) {
	var res Result
	p := NewCollector(opts, &res)
	completed, err := p.Parse(src)
	res.Completed = completed
	res.Lines = p.Line()
	res.Truncated = p.Truncated()
	if completed {
		res.StoppedAt = 0
	}
	return res, err
}

// CollectFile is Collect over the file at path.
func CollectFile(path string, opts CollectOptions) (Result, error) {
	// #nosec G304 -- path is chosen by the caller.
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = f.Close()
	}()
	return Collect(f, opts)
}

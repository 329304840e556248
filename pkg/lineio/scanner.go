// Package lineio reads text one line at a time with a bounded line length.
//
// Lines end at '\n'; a '\r' right before it is dropped. A line longer than the
// configured bound is truncated to the bound, the rest of the physical line is
// discarded and scanning continues with the next line. Truncation is reported
// through Truncated and is never an error.
package lineio

import (
	"bufio"
	"errors"
	"io"
)

// Scanner yields the lines of a reader together with their 1-based numbers.
type Scanner struct {
	r   *bufio.Reader
	max int

	buf       []byte
	line      int
	truncated bool
	done      bool
	err       error
}

// NewScanner returns a Scanner over r. maxLineBytes <= 0 disables the bound.
func NewScanner(r io.Reader, maxLineBytes int) *Scanner {
	return &Scanner{r: bufio.NewReader(r), max: maxLineBytes}
}

// Scan advances to the next line. It returns false at end of input or on a
// read error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	s.buf = s.buf[:0]
	s.truncated = false

	read := false
	for {
		frag, err := s.r.ReadSlice('\n')
		if len(frag) > 0 {
			read = true
		}
		if err == nil {
			s.appendFragment(frag[:len(frag)-1])
			break
		}
		s.appendFragment(frag)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		s.done = true
		if !errors.Is(err, io.EOF) {
			s.err = err
			return false
		}
		if !read {
			return false
		}
		break
	}
	if n := len(s.buf); n > 0 && s.buf[n-1] == '\r' && !s.truncated {
		s.buf = s.buf[:n-1]
	}
	s.line++
	return true
}

func (s *Scanner) appendFragment(frag []byte) {
	if s.max <= 0 {
		s.buf = append(s.buf, frag...)
		return
	}
	room := s.max - len(s.buf)
	if len(frag) > room {
		// A lone CR past the bound is part of the terminator, not content.
		if len(frag) == room+1 && frag[room] == '\r' {
			s.buf = append(s.buf, frag[:room]...)
			return
		}
		if room > 0 {
			s.buf = append(s.buf, frag[:room]...)
		}
		s.truncated = true
		return
	}
	s.buf = append(s.buf, frag...)
}

// Text returns the current line without its terminator.
func (s *Scanner) Text() string {
	return string(s.buf)
}

// Line returns the 1-based number of the current line.
func (s *Scanner) Line() int {
	return s.line
}

// Truncated reports whether the current line exceeded the bound.
func (s *Scanner) Truncated() bool {
	return s.truncated
}

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	return s.err
}

package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	green   = "\033[97;42m"
	white   = "\033[90;47m"
	yellow  = "\033[90;43m"
	red     = "\033[97;41m"
	resetFG = "\033[0m"
)

// ColorizeStatus renders status, wrapped in an ANSI color by class when color
// is set.
func ColorizeStatus(status int, color bool) string {
	s := fmt.Sprintf("%3d", status)
	if !color {
		return s
	}
	var c string
	switch {
	case status >= 200 && status < 300:
		c = green
	case status >= 300 && status < 400:
		c = white
	case status >= 400 && status < 500:
		c = yellow
	default:
		c = red
	}
	return c + " " + s + " " + resetFG
}

// FormatRequestLine renders one HTTP request log line:
//
//	2026/01/02 - 15:04:05 | 200 | 1.2ms | 127.0.0.1 | POST /api/rows
func FormatRequestLine(ts time.Time, status int, latency time.Duration, clientIP, method, path string, color bool) string {
	ip := strings.TrimSpace(clientIP)
	if ip == "" {
		ip = "-"
	}
	return fmt.Sprintf("%s | %s | %v | %s | %s %s",
		ts.Format("2006/01/02 - 15:04:05"),
		ColorizeStatus(status, color),
		latency,
		ip,
		strings.TrimSpace(method),
		path,
	)
}

// UseColor reports whether w is a terminal.
func UseColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

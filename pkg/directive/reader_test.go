package directive

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type call struct {
	Handler string
	Key     string
	Value   string
	Line    int
}

type recorder struct {
	calls []call
}

func (r *recorder) handler(name string, interrupt bool) HandlerFunc[*recorder] {
	return func(key, value string, ctx *recorder, line int) bool {
		ctx.calls = append(ctx.calls, call{Handler: name, Key: key, Value: value, Line: line})
		return interrupt
	}
}

func TestParseDispatchesRegisteredKeys(t *testing.T) {
	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.Register("FOO", rec, rec.handler("foo", false))
	p.Register("BAR", rec, rec.handler("bar", false))

	ok, err := p.Parse(strings.NewReader("FOO = hello ; trailing\nBAR=world\n"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []call{
		{Handler: "foo", Key: "FOO", Value: " hello ", Line: 1},
		{Handler: "bar", Key: "BAR", Value: "world", Line: 2},
	}, rec.calls)
	require.Equal(t, 2, p.Line())
	require.Equal(t, StateStopped, p.State())
}

func TestParseRoutesUnknownKeysToFallback(t *testing.T) {
	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.Register("KNOWN", rec, rec.handler("known", false))
	p.SetUnknown(rec, rec.handler("unknown", false))

	ok, err := p.Parse(strings.NewReader("UNKNOWN = 1\n"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []call{{Handler: "unknown", Key: "UNKNOWN", Value: " 1", Line: 1}}, rec.calls)
}

func TestParseDropsUnknownKeysWithoutFallback(t *testing.T) {
	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.Register("A", rec, rec.handler("a", false))

	ok, err := p.Parse(strings.NewReader("B = 2\nA = 1\n"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []call{{Handler: "a", Key: "A", Value: " 1", Line: 2}}, rec.calls)
}

func TestParseStopsOnInterrupt(t *testing.T) {
	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.Register("STOP", rec, rec.handler("stop", true))
	p.SetUnknown(rec, rec.handler("unknown", false))

	ok, err := p.Parse(strings.NewReader("STOP = now\nNEXT = 2\nLAST = 3\n"))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []call{{Handler: "stop", Key: "STOP", Value: " now", Line: 1}}, rec.calls)
	require.Equal(t, 1, p.Line())
	require.Equal(t, StateStopped, p.State())
}

func TestParseInterruptDoesNotReadFurther(t *testing.T) {
	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.SetUnknown(rec, func(key, value string, ctx *recorder, line int) bool {
		ctx.calls = append(ctx.calls, call{Key: key, Line: line})
		return key == "B"
	})

	src := &countingReader{r: strings.NewReader("A=1\nB=2\n" + strings.Repeat("C=3\n", 5000))}
	ok, err := p.Parse(src)
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, rec.calls, 2)
	require.Less(t, src.n, 5000*4, "reader kept consuming input after the interrupt")
}

type countingReader struct {
	r *strings.Reader
	n int
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += n
	return n, err
}

func TestParseSkipsMalformedLines(t *testing.T) {
	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.SetUnknown(rec, rec.handler("any", false))

	in := strings.Join([]string{
		"# comment = ignored",
		"; comment = ignored",
		"no operator here",
		"   = empty key",
		"",
		"K = a=b=c",
		"  SPACED\t=\tv  # tail",
		"EMPTY =",
		"X ; = hidden",
	}, "\n")
	ok, err := p.Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []call{
		{Handler: "any", Key: "K", Value: " a=b=c", Line: 6},
		{Handler: "any", Key: "SPACED", Value: "\tv  ", Line: 7},
		{Handler: "any", Key: "EMPTY", Value: "", Line: 8},
	}, rec.calls)
	require.Equal(t, 9, p.Line())
}

func TestParseKeysAreCaseSensitive(t *testing.T) {
	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.Register("Key", rec, rec.handler("exact", false))
	p.SetUnknown(rec, rec.handler("unknown", false))

	_, err := p.Parse(strings.NewReader("key = 1\nKey = 2\nKEY = 3\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"unknown", "exact", "unknown"}, handlerNames(rec.calls))
}

func TestRegisterDuplicateFirstWins(t *testing.T) {
	var logBuf bytes.Buffer
	rec := &recorder{}
	reg := NewRegistry[*recorder]()
	reg.SetLogger(log.New(&logBuf, "", 0))
	reg.Register("DUP", rec, rec.handler("first", false))
	reg.Register("DUP", rec, rec.handler("second", false))

	require.Equal(t, []string{"DUP", "DUP"}, reg.Keys())
	require.Contains(t, logBuf.String(), `key "DUP" registered again`)

	ok, err := NewReader(reg).Parse(strings.NewReader("DUP = 1\nDUP = 2\n"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"first", "first"}, handlerNames(rec.calls))
}

func TestRegisteredNilHandlerSwallowsKey(t *testing.T) {
	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.Register("MUTE", rec, nil)
	p.SetUnknown(rec, rec.handler("unknown", false))

	_, err := p.Parse(strings.NewReader("MUTE = 1\n"))
	require.NoError(t, err)
	require.Empty(t, rec.calls)
}

func TestSetUnknownLastCallWins(t *testing.T) {
	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.SetUnknown(rec, rec.handler("old", false))
	p.SetUnknown(rec, rec.handler("new", false))

	_, err := p.Parse(strings.NewReader("Z=1\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"new"}, handlerNames(rec.calls))
}

func TestHandlersReceiveTheirOwnContext(t *testing.T) {
	type counters struct{ hits map[string]int }
	a := &counters{hits: map[string]int{}}
	b := &counters{hits: map[string]int{}}
	count := func(key, _ string, ctx *counters, _ int) bool {
		ctx.hits[key]++
		return false
	}

	p := NewReader[*counters](nil)
	p.Register("A", a, count)
	p.SetUnknown(b, count)
	_, err := p.Parse(strings.NewReader("A=1\nB=2\nA=3\n"))
	require.NoError(t, err)
	require.Equal(t, map[string]int{"A": 2}, a.hits)
	require.Equal(t, map[string]int{"B": 1}, b.hits)
}

type settings struct {
	values map[string]string
}

type settingsFiller struct{}

func (settingsFiller) RegisterDirectives(p *Reader[*settings]) {
	store := func(key, value string, ctx *settings, _ int) bool {
		ctx.values[key] = strings.TrimSpace(value)
		return false
	}
	p.Register("HOST", p.Global(), store)
	p.Register("PORT", p.Global(), store)
}

func TestInitRunsRegistrarWithGlobalContext(t *testing.T) {
	cfg := &settings{values: map[string]string{}}
	p := NewReader[*settings](nil)
	p.Init(cfg, settingsFiller{})

	require.Same(t, cfg, p.Global())
	require.Equal(t, []string{"HOST", "PORT"}, p.Registry().Keys())

	ok, err := p.Parse(strings.NewReader("HOST = example.org\nPORT = 8080 # default\n"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, map[string]string{"HOST": "example.org", "PORT": "8080"}, cfg.values)
}

func TestSharedRegistryAcrossReaders(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry[*recorder]()
	reg.Register("K", rec, rec.handler("k", false))
	first := NewReader(reg)
	second := NewReader(reg)

	_, err := first.Parse(strings.NewReader("K=1\n"))
	require.NoError(t, err)
	_, err = second.Parse(strings.NewReader("\nK=2\n"))
	require.NoError(t, err)
	require.Equal(t, []call{
		{Handler: "k", Key: "K", Value: "1", Line: 1},
		{Handler: "k", Key: "K", Value: "2", Line: 2},
	}, rec.calls)
	require.Equal(t, 1, first.Line())
	require.Equal(t, 2, second.Line())
}

func TestParseIsRepeatable(t *testing.T) {
	in := "A = 1\n# c\nB = 2 ; x\nC\n"
	run := func() []call {
		rec := &recorder{}
		p := NewReader[*recorder](nil)
		p.Register("A", rec, rec.handler("a", false))
		p.SetUnknown(rec, rec.handler("u", false))
		_, err := p.Parse(strings.NewReader(in))
		require.NoError(t, err)
		return rec.calls
	}
	require.Equal(t, run(), run())
}

func TestParseTruncatesLongLines(t *testing.T) {
	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.SetMaxLineBytes(8)
	p.SetUnknown(rec, rec.handler("u", false))

	ok, err := p.Parse(strings.NewReader("KEY=0123456789\nB=1\n"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []call{
		{Handler: "u", Key: "KEY", Value: "0123", Line: 1},
		{Handler: "u", Key: "B", Value: "1", Line: 2},
	}, rec.calls)
	require.Equal(t, 1, p.Truncated())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.cfg")
	require.NoError(t, os.WriteFile(path, []byte("COMMAND_ONE = this is value  ; ignored\n"), 0o600))

	rec := &recorder{}
	p := NewReader[*recorder](nil)
	p.Register("COMMAND_ONE", rec, rec.handler("one", false))
	ok, err := p.ParseFile(path)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []call{{Handler: "one", Key: "COMMAND_ONE", Value: " this is value  ", Line: 1}}, rec.calls)
}

func TestParseFileMissing(t *testing.T) {
	p := NewReader[*recorder](nil)
	ok, err := p.ParseFile(filepath.Join(t.TempDir(), "missing.cfg"))
	require.False(t, ok)
	require.True(t, os.IsNotExist(err))
	require.Equal(t, StateStopped, p.State())
	require.Equal(t, 0, p.Registry().Len())
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in    string
		key   string
		value string
		ok    bool
	}{
		{in: "FOO = hello ; trailing", key: "FOO", value: " hello ", ok: true},
		{in: "#FOO = bar", ok: false},
		{in: " #FOO = bar", ok: false},
		{in: "FOO", ok: false},
		{in: "\t= v", ok: false},
		{in: "FOO=", key: "FOO", value: "", ok: true},
	}
	for _, tt := range tests {
		key, value, ok := Split(tt.in)
		require.Equal(t, tt.ok, ok, "Split(%q)", tt.in)
		require.Equal(t, tt.key, key, "Split(%q) key", tt.in)
		require.Equal(t, tt.value, value, "Split(%q) value", tt.in)
	}
}

func handlerNames(calls []call) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Handler)
	}
	return out
}

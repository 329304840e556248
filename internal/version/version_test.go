package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetUsesLinkerValues(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = oldV, oldC, oldD })

	Version, Commit, BuildDate = "v1.2.3", "abc1234", "2026-01-02"
	info := Get()
	if info.Version != "v1.2.3" || info.Commit != "abc1234" || info.BuildDate != "2026-01-02" {
		t.Fatalf("unexpected info %+v", info)
	}
	want := "lineparse v1.2.3 (abc1234) built 2026-01-02 " + runtime.Version()
	if !strings.HasPrefix(info.String(), want) {
		t.Fatalf("String()=%q want prefix %q", info.String(), want)
	}
}

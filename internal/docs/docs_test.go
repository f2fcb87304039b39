package docs

import (
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	t.Parallel()

	got := strings.Join(Topics(), ",")
	if got != "config,scripting,tui" {
		t.Fatalf("unexpected topics: %q", got)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	body, ok := Get(" TUI ")
	if !ok || !strings.Contains(body, "# Board") {
		t.Fatalf("expected tui topic; got ok=%v body=%q", ok, body)
	}
	for _, bad := range []string{"", "nope", "../docs", "content/tui"} {
		if _, ok := Get(bad); ok {
			t.Fatalf("expected %q to be unknown", bad)
		}
	}
}

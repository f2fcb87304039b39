package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"taskboard-cli/internal/cli"
)

func isTaskID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// rewriteDirectTaskLookupArgs makes `taskboard <id>` behave like
// `taskboard tasks show <id>`. Cobra treats the first positional token as a
// subcommand, so argv is rewritten before parsing. Persistent flags may come
// first, so the first positional token is searched for rather than argv[1].
func rewriteDirectTaskLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so an id is never
	// mistaken for one.
	valueFlags := map[string]bool{
		"--config":   true,
		"--api-url":  true,
		"--data-dir": true,
		"--format":   true,
	}
	boolFlags := map[string]bool{
		"--pretty":  true,
		"--verbose": true,
		"-v":        true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		switch {
		case a == "":
			continue
		case a == "--":
			return argv
		case strings.HasPrefix(a, "-"):
			if !strings.Contains(a, "=") && !boolFlags[a] && valueFlags[a] {
				i++
			}
			continue
		}

		if !isTaskID(a) {
			return argv
		}
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "tasks", "show")
		out = append(out, argv[i:]...)
		return out
	}
	return argv
}

func main() {
	os.Args = rewriteDirectTaskLookupArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	cmd.SetArgs(os.Args[1:])
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

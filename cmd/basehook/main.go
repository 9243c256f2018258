package main

import (
	"os"
	"strings"

	"basehook-cli/internal/cli"
)

// isViewLink reports whether s looks like a shareable view rather than a subcommand:
// a URL, a "?query", or a bare "key=value&..." query string.
func isViewLink(s string) bool {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return false
	case strings.HasPrefix(s, "?"):
		return true
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return true
	}
	return strings.Contains(s, "=") && !strings.HasPrefix(s, "-")
}

// rewriteBareLinkArgs makes `basehook <link>` open the dashboard on that view, like
// `basehook --view <link>`. Cobra would otherwise treat the link as a subcommand.
func rewriteBareLinkArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Persistent flags may come first, so look for the first positional token. Unknown
	// flags are skipped without their value to avoid consuming the link.
	valueFlags := map[string]bool{
		"--server":     true,
		"--config-dir": true,
		"--format":     true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	withView := func(before []string, link string, after []string) []string {
		out := make([]string, 0, len(before)+len(after)+2)
		out = append(out, before...)
		out = append(out, "--view", link)
		return append(out, after...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isViewLink(argv[i+1]) {
				return withView(argv[:i], argv[i+1], argv[i+2:])
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if isViewLink(a) {
			return withView(argv[:i], argv[i], argv[i+1:])
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteBareLinkArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

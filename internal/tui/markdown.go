package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"basehook-cli/internal/model"
)

var (
	mdRendererMu sync.Mutex
	// Keyed by style and wrap width. WithAutoStyle is avoided because it may block on
	// terminal queries.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func markdownStyle() string {
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)
	mdRendererMu.Lock()
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// updateMarkdown describes one row for the detail pane: its fields, then the content as a
// JSON block and the traceback, if any, as a text block.
func updateMarkdown(u model.ThreadUpdate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Update %d\n\n", u.ID)
	fmt.Fprintf(&b, "- **Webhook:** %s\n", u.WebhookName)
	fmt.Fprintf(&b, "- **Thread:** `%s`\n", u.ThreadID)
	fmt.Fprintf(&b, "- **Revision:** %s\n", strconv.FormatFloat(u.RevisionNumber, 'f', -1, 64))
	fmt.Fprintf(&b, "- **Status:** %s\n", u.Status.WireValue())
	fmt.Fprintf(&b, "- **Received:** %s\n", u.Time().Local().Format(time.RFC3339))

	if len(u.Content) > 0 {
		b.WriteString("\n### Content\n\n```json\n")
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, u.Content, "", "  "); err == nil {
			b.Write(pretty.Bytes())
		} else {
			b.Write(u.Content)
		}
		b.WriteString("\n```\n")
	}
	if u.Traceback != nil && strings.TrimSpace(*u.Traceback) != "" {
		b.WriteString("\n### Traceback\n\n```text\n")
		b.WriteString(strings.TrimRight(*u.Traceback, "\n"))
		b.WriteString("\n```\n")
	}
	return b.String()
}

package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/roundtable/core"
)

// authorPalette cycles through distinct colors as new authors appear.
var authorPalette = []lipgloss.Color{
	"#4D96FF",
	"#FF6B6B",
	"#6BCB77",
	"#FFD93D",
	"#B39CD0",
	"#4DD0E1",
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	bodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	toolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

// ConsoleOptions configures a Console sink.
type ConsoleOptions struct {
	// Writer receives the rendered output. Defaults to os.Stdout.
	Writer io.Writer
}

// Console renders each message to a terminal, one block per message, with a
// stable color per author.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	colors map[string]lipgloss.Color
	next   int
}

// NewConsole creates a terminal sink.
func NewConsole(optFns ...func(o *ConsoleOptions)) *Console {
	opts := ConsoleOptions{Writer: os.Stdout}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Console{
		w:      opts.Writer,
		colors: make(map[string]lipgloss.Color),
	}
}

// OnMessage implements Sink.
func (c *Console) OnMessage(_ context.Context, msg core.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	header := headerStyle.Foreground(c.colorFor(msg.Author)).Render(msg.Author)
	stamp := timeStyle.Render(msg.Timestamp.Format("15:04:05"))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n", header, stamp))

	if text := msg.Text(); text != "" {
		sb.WriteString(bodyStyle.Render(text))
		sb.WriteString("\n")
	}

	for _, call := range msg.FunctionCalls() {
		sb.WriteString(toolStyle.Render(fmt.Sprintf("→ %s(%s)", call.Name, truncate(call.Arguments, 80))))
		sb.WriteString("\n")
	}

	for _, resp := range msg.FunctionResponses() {
		summary := "ok"
		if resp.Error != "" {
			summary = "error: " + resp.Error
		}
		sb.WriteString(toolStyle.Render(fmt.Sprintf("← %s: %s", resp.Name, truncate(summary, 80))))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")

	fmt.Fprint(c.w, sb.String())
}

// colorFor assigns and remembers a palette color for an author.
func (c *Console) colorFor(author string) lipgloss.Color {
	if color, ok := c.colors[author]; ok {
		return color
	}

	color := authorPalette[c.next%len(authorPalette)]
	c.next++
	c.colors[author] = color

	return color
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/retailvoice/callbridge/internal/domain/entity"
)

// colors mirror the speaker roles a transcript distinguishes.
var (
	colorCaller    = lipgloss.Color("#00D7FF")
	colorAssistant = lipgloss.Color("#7E57C2")
	colorSystem    = lipgloss.Color("#6C6C6C")
	colorTool      = lipgloss.Color("#FFD75F")
)

// Renderer is A8: it turns one call's transcript into readable, styled
// terminal output: glamour for the markdown, lipgloss for speaker tags,
// in a fixed, non-interactive rendering of a closed transcript rather
// than a live chat stream.
type Renderer struct {
	glamour *glamour.TermRenderer
	width   int
}

func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	return &Renderer{glamour: r, width: width}
}

// RenderTranscript renders a call's messages as a markdown document,
// passed through glamour for terminal styling.
func (r *Renderer) RenderTranscript(callID string, entries []entity.TranscriptEntry) string {
	var md strings.Builder
	fmt.Fprintf(&md, "# Call %s\n\n", callID)

	for _, e := range entries {
		tag, style := r.speakerTag(e.Speaker)
		fmt.Fprintf(&md, "**%s** _(%s)_\n\n%s\n\n", style.Render(tag), e.When.Format(time.Kitchen), e.Text)
	}

	out, err := r.glamour.Render(md.String())
	if err != nil {
		return md.String()
	}
	return strings.TrimSpace(out)
}

func (r *Renderer) speakerTag(s entity.Speaker) (string, lipgloss.Style) {
	switch s {
	case entity.SpeakerCaller:
		return "Caller", lipgloss.NewStyle().Foreground(colorCaller).Bold(true)
	case entity.SpeakerAssistant:
		return "Assistant", lipgloss.NewStyle().Foreground(colorAssistant).Bold(true)
	case entity.SpeakerTool:
		return "Tool", lipgloss.NewStyle().Foreground(colorTool).Bold(true)
	default:
		return "System", lipgloss.NewStyle().Foreground(colorSystem)
	}
}

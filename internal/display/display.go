package display

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	osc52 "github.com/aymanbagabas/go-osc52/v2"

	"github.com/BegaDeveloper/nlbash/internal/history"
	"github.com/BegaDeveloper/nlbash/internal/security"
)

type Renderer struct {
	out     io.Writer
	errOut  io.Writer
	color   bool
	title   lipgloss.Style
	command lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

func NewRenderer(out io.Writer, errOut io.Writer, color bool) *Renderer {
	return &Renderer{
		out:     out,
		errOut:  errOut,
		color:   color,
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		command: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("236")).Padding(0, 1),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		dim:     lipgloss.NewStyle().Faint(true),
	}
}

func (renderer *Renderer) render(style lipgloss.Style, text string) string {
	if !renderer.color {
		return text
	}
	return style.Render(text)
}

func (renderer *Renderer) Command(command string) {
	fmt.Fprintln(renderer.out)
	fmt.Fprintln(renderer.out, renderer.render(renderer.title, "Generated Command:"))
	fmt.Fprintln(renderer.out, renderer.render(renderer.command, command))
}

func (renderer *Renderer) Note(message string) {
	fmt.Fprintln(renderer.out, renderer.render(renderer.dim, "("+message+")"))
}

func (renderer *Renderer) Error(err error) {
	fmt.Fprintf(renderer.errOut, "\n%s %v\n", renderer.render(renderer.failure, "Error:"), err)
}

func (renderer *Renderer) Warning(message string) {
	fmt.Fprintf(renderer.errOut, "%s %s\n", renderer.render(renderer.warning, "Warning:"), message)
}

func (renderer *Renderer) Risk(assessment security.CommandAssessment) {
	if !assessment.RequiresRiskConfirmation {
		return
	}
	level := strings.ToUpper(assessment.RiskLevel)
	fmt.Fprintf(renderer.out, "%s %s\n", renderer.render(renderer.warning, level+" RISK:"), assessment.RiskReason)
}

func (renderer *Renderer) History(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(renderer.out, "No history yet.")
		return
	}
	for _, entry := range entries {
		stamp := entry.Timestamp.Format("2006-01-02 15:04:05")
		fmt.Fprintf(renderer.out, "%s  %s\n    %s\n", renderer.render(renderer.dim, stamp), entry.Query, renderer.render(renderer.title, entry.Command))
	}
}

// CopyToClipboard writes an OSC 52 sequence; the terminal performs the copy, so it
// also works over SSH.
func CopyToClipboard(w io.Writer, text string) error {
	if _, err := fmt.Fprint(w, osc52.New(text)); err != nil {
		return fmt.Errorf("write clipboard sequence: %w", err)
	}
	return nil
}

package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/okd4prov/internal/domain/compiler"
	"github.com/felixgeelhaar/okd4prov/internal/domain/execution"
	"github.com/felixgeelhaar/okd4prov/internal/domain/host"
)

var (
	styleOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleApply = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleSkip  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleFail  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleTitle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Printer writes plans, results and facts for humans.
type Printer struct {
	out     io.Writer
	color   bool
	verbose bool
}

// NewPrinter creates a Printer.
func NewPrinter(out io.Writer, color bool) *Printer {
	return &Printer{out: out, color: color}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// marker returns the status glyph for a step.
func (p *Printer) marker(status compiler.StepStatus) string {
	switch status {
	case compiler.StatusSatisfied:
		return p.style(styleOK, "✓")
	case compiler.StatusNeedsApply:
		return p.style(styleApply, "+")
	case compiler.StatusApplied:
		return p.style(styleApply, "✓")
	case compiler.StatusSkipped:
		return p.style(styleSkip, "-")
	case compiler.StatusFailed:
		return p.style(styleFail, "✗")
	case compiler.StatusUnknown:
		return "?"
	}
	return "?"
}

// PrintPlan outputs a human-readable plan summary.
func (p *Printer) PrintPlan(s *Session, plan *execution.Plan) {
	p.printf("\n%s\n\n", p.style(styleTitle, "OKD4 Provisioning Plan"))
	p.printHeader(s)

	for _, entry := range plan.Entries() {
		p.printf("  %s %s", p.marker(entry.Status()), entry.Step().ID())
		if entry.Status() == compiler.StatusSkipped {
			p.printf(" %s", p.style(styleSkip, "(skipped)"))
		}
		p.printf("\n")
		if entry.Status() != compiler.StatusNeedsApply {
			continue
		}
		if d := entry.Diff(); !d.IsEmpty() {
			p.printf("      %s\n", d.Summary())
		}
		if p.verbose {
			p.printExplanation(entry.Step().Explain(compiler.NewExplainContext().WithVerbose(true)))
		}
	}

	summary := plan.Summary()
	p.printf("\nSteps: %d total, %d to apply, %d satisfied, %d skipped\n",
		summary.Total, summary.NeedsApply, summary.Satisfied, summary.Skipped)
	if stages := plan.Inapplicable(); len(stages) > 0 {
		p.printf("Not applicable on this host: %s\n", strings.Join(stages, ", "))
	}

	if !plan.HasChanges() {
		p.printf("\nNo changes needed. The staging host is up to date.\n")
		return
	}
	p.printf("\nRun 'okd4prov apply' to execute this plan.\n")
}

func (p *Printer) printExplanation(e compiler.Explanation) {
	if e.IsEmpty() {
		return
	}
	p.printf("      %s: %s\n", p.style(styleTitle, e.Summary()), e.Detail())
	for _, link := range e.DocLinks() {
		p.printf("      %s\n", p.style(styleSkip, link))
	}
}

func (p *Printer) printHeader(s *Session) {
	p.printf("Host:    %s\n", s.Host)
	if s.Release.Tag != "" {
		p.printf("Release: %s\n", s.Release.Tag)
	}
	p.printf("\n")
}

// Progress prints one line per executed step.
func (p *Printer) Progress(r execution.StepResult) {
	line := fmt.Sprintf("  %s %s", p.marker(r.Status()), r.StepID())
	switch {
	case r.Error() != nil:
		line += ": " + p.style(styleFail, r.Error().Error())
	case r.Skipped():
		line += " " + p.style(styleSkip, "(skipped)")
	case r.Status() == compiler.StatusNeedsApply:
		line += " " + p.style(styleApply, "(would apply)")
	}
	p.printf("%s\n", line)
}

// PrintResults outputs the execution summary.
func (p *Printer) PrintResults(results []execution.StepResult) {
	var applied, satisfied, skipped, pending, failed int
	for i := range results {
		switch results[i].Status() {
		case compiler.StatusApplied:
			applied++
		case compiler.StatusSatisfied:
			satisfied++
		case compiler.StatusSkipped:
			skipped++
		case compiler.StatusNeedsApply:
			pending++
		case compiler.StatusFailed:
			failed++
		case compiler.StatusUnknown:
		}
	}

	p.printf("\nSummary: %d applied, %d satisfied, %d skipped", applied, satisfied, skipped)
	if pending > 0 {
		p.printf(", %d would apply", pending)
	}
	if failed > 0 {
		p.printf(", %s", p.style(styleFail, fmt.Sprintf("%d failed", failed)))
	}
	p.printf("\n")

	for i := range results {
		if err := results[i].Error(); err != nil {
			p.printf("Failed: %s\n", p.style(styleFail, err.Error()))
		}
	}
}

var capabilities = []host.Capability{
	host.CapEPEL,
	host.CapPackages,
	host.CapDirectories,
	host.CapSyslinuxCopy,
	host.CapNginxConfig,
	host.CapServices,
	host.CapFirewall,
}

// PrintFacts outputs the discovered host descriptor.
func (p *Printer) PrintFacts(s *Session) {
	d := s.Host
	p.printf("Distribution:  %s (%s)\n", d.DistroName, d.Distro)
	if d.Major > 0 {
		p.printf("Major version: %d\n", d.Major)
	}
	p.printf("User:          %s\n", d.User)
	p.printf("Cluster:       %s\n", d.ClusterFQDN())
	p.printf("Config dir:    %s\n", d.ConfigDir())

	var supported []string
	for _, c := range capabilities {
		if d.Supports(c) {
			supported = append(supported, c.String())
		}
	}
	if len(supported) == 0 {
		supported = []string{"none"}
	}
	p.printf("Capabilities:  %s\n", strings.Join(supported, ", "))
}

// PrintStages lists stage names in sequence order.
func (p *Printer) PrintStages(stages []string) {
	for i, name := range stages {
		p.printf("%2d. %s\n", i+1, name)
	}
}

func (p *Printer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gogpu/spvreflect/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

type tickMsg time.Time

type watchModel struct {
	ctx      context.Context
	im       *importer
	interval time.Duration
	last     time.Time
	stats    pipeline.Stats
	reloads  int
	spinner  spinner.Model
}

func newWatchModel(ctx context.Context, im *importer, interval time.Duration) watchModel {
	return watchModel{
		ctx:      ctx,
		im:       im,
		interval: interval,
		last:     time.Now(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(loadingStyle)),
	}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case tickMsg:
		now := time.Time(msg)
		for _, j := range m.im.jobs {
			if m.im.resubmit(j) {
				m.reloads++
			}
		}
		m.stats = m.im.tick(m.ctx, now.Sub(m.last))
		m.last = now
		return m, m.tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("shaderimport"))
	b.WriteString("\n\n")

	for _, r := range m.im.results() {
		var status string
		switch {
		case r.loading:
			status = m.spinner.View() + " " + loadingStyle.Render(r.Status)
		case r.failed:
			status = "  " + errorStyle.Render(r.Status)
		default:
			status = "  " + okStyle.Render(r.Status)
		}
		fmt.Fprintf(&b, "%s  %s (%s)\n", status, pathStyle.Render(r.Path), r.Stage)
		if md := r.Metadata; md != nil {
			b.WriteString(detailStyle.Render(fmt.Sprintf(
				"     v%d src %d: %d uniforms, %d push, %d inputs, %d samplers, %d buffers",
				r.Version, r.SourceVersion, len(md.Uniforms), len(md.PushConstants),
				len(md.VertexInputs), len(md.Samplers), len(md.StorageBuffers))))
			b.WriteString("\n")
		}
		if r.Diagnostic != "" {
			for _, line := range strings.Split(strings.TrimSpace(r.Diagnostic), "\n") {
				b.WriteString(errorStyle.Render("     " + line))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf(
		"reloads %d  last tick: %d committed, %d waiting, %d failed  q: quit",
		m.reloads, m.stats.Committed, m.stats.Waiting, m.stats.Failed)))
	b.WriteString("\n")
	return b.String()
}

// runInteractive watches the submitted shaders and re-imports them when
// their files change.
func runInteractive(ctx context.Context, im *importer, interval time.Duration) error {
	p := tea.NewProgram(newWatchModel(ctx, im, interval), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Package tui implements the interactive cache dashboard built on
// bubbletea. It periodically samples cache usage, process memory, and
// system resource consumption, and lets the user remove entries or purge
// the cache from the keyboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/uaremad/imgcache"
	"github.com/uaremad/imgcache/internal/config"
	apperrors "github.com/uaremad/imgcache/internal/errors"
	"github.com/uaremad/imgcache/internal/format"
	"github.com/uaremad/imgcache/internal/metrics"
	"github.com/uaremad/imgcache/internal/sysmon"
)

// TickMsg drives the periodic refresh cycle.
type TickMsg time.Time

// SnapshotMsg carries a fresh sample of cache and system state.
type SnapshotMsg struct {
	Stats   imgcache.Stats
	Entries []imgcache.Entry
	Sys     sysmon.Stats
	Mem     metrics.MemorySnapshot
}

// MutationMsg reports the outcome of a remove or purge action.
type MutationMsg struct {
	Action string
	Err    error
}

// ContextCancelledMsg signals that the parent context was cancelled.
type ContextCancelledMsg struct {
	Err error
}

// Layout constants for the dashboard.
const (
	headerHeight    = 1
	footerHeight    = 1
	metricsHeight   = 6
	minEntriesRows  = 3
	refreshInterval = time.Second
)

// Model is the root bubbletea model for the cache dashboard.
type Model struct {
	header HeaderModel
	keymap KeyMap

	cache *imgcache.Cache
	ttl   time.Duration

	width  int
	height int
	cursor int
	offset int

	stats   imgcache.Stats
	entries []imgcache.Entry
	sys     sysmon.Stats
	mem     metrics.MemorySnapshot

	status    string
	statusErr bool
	exitCode  int
}

// NewModel creates a new dashboard model.
func NewModel(cache *imgcache.Cache, cfg config.AppConfig, version string) Model {
	return Model{
		header:   NewHeaderModel(version),
		keymap:   DefaultKeyMap(),
		cache:    cache,
		ttl:      cfg.TTL,
		exitCode: apperrors.ExitSuccess,
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(snapshotCmd(m.cache), tickCmd())
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.header.SetWidth(m.width)
		return m, nil

	case SnapshotMsg:
		m.stats = msg.Stats
		m.entries = msg.Entries
		m.sys = msg.Sys
		m.mem = msg.Mem
		m.clampCursor()
		return m, nil

	case MutationMsg:
		if msg.Err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.Action, msg.Err)
			m.statusErr = true
		} else {
			m.status = msg.Action + " ok"
			m.statusErr = false
		}
		return m, snapshotCmd(m.cache)

	case TickMsg:
		return m, tea.Batch(snapshotCmd(m.cache), tickCmd())

	case ContextCancelledMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Refresh):
		m.status = ""
		return m, snapshotCmd(m.cache)

	case key.Matches(msg, m.keymap.Remove):
		if m.cursor < len(m.entries) {
			url := m.entries[m.cursor].URL
			return m, removeCmd(m.cache, url)
		}
		return m, nil

	case key.Matches(msg, m.keymap.Purge):
		return m, purgeCmd(m.cache)

	case key.Matches(msg, m.keymap.Up):
		m.cursor--
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		m.cursor++
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keymap.PageUp):
		m.cursor -= m.entriesRows()
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keymap.PageDown):
		m.cursor += m.entriesRows()
		m.clampCursor()
		return m, nil
	}

	return m, nil
}

// clampCursor keeps the cursor and scroll offset inside the entry list.
func (m *Model) clampCursor() {
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	rows := m.entriesRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// entriesRows returns the number of entry rows that fit in the list panel.
func (m Model) entriesRows() int {
	rows := m.height - headerHeight - footerHeight - metricsHeight - 2
	if rows < minEntriesRows {
		rows = minEntriesRows
	}
	return rows
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := m.header.View()
	metricsPanel := m.renderMetrics()
	entriesPanel := m.renderEntries()
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, metricsPanel, entriesPanel, footer)
}

// renderMetrics renders the usage panel: cache fill gauge, heap, and
// system resource percentages.
func (m Model) renderMetrics() string {
	var b strings.Builder

	fill := 0.0
	if m.stats.MaxBytes > 0 {
		fill = float64(m.stats.TotalBytes) / float64(m.stats.MaxBytes)
	}
	b.WriteString(fmt.Sprintf("%s %s %s / %s (%d entries)\n",
		metricLabelStyle.Render("Cache"),
		renderGauge(fill, 20),
		metricValueStyle.Render(format.FormatBytes(uint64(m.stats.TotalBytes))),
		format.FormatBytes(uint64(m.stats.MaxBytes)),
		m.stats.Entries))

	b.WriteString(fmt.Sprintf("%s  %s heap, %s from OS, %d GC cycles\n",
		metricLabelStyle.Render("Heap "),
		metricValueStyle.Render(format.FormatBytes(m.mem.HeapAlloc)),
		format.FormatBytes(m.mem.Sys),
		m.mem.NumGC))

	b.WriteString(fmt.Sprintf("%s   CPU %s  Mem %s  Disk %s (%s free)",
		metricLabelStyle.Render("Sys"),
		metricValueStyle.Render(fmt.Sprintf("%.0f%%", m.sys.CPUPercent)),
		metricValueStyle.Render(fmt.Sprintf("%.0f%%", m.sys.MemPercent)),
		metricValueStyle.Render(fmt.Sprintf("%.0f%%", m.sys.DiskPercent)),
		format.FormatBytes(m.sys.DiskFree)))

	return panelStyle.Width(m.width - 2).Render(b.String())
}

// renderEntries renders the scrollable entry list.
func (m Model) renderEntries() string {
	rows := m.entriesRows()

	var b strings.Builder
	b.WriteString(metricLabelStyle.Render(fmt.Sprintf("Entries (%d)", len(m.entries))))
	b.WriteString("\n")

	if len(m.entries) == 0 {
		b.WriteString(versionStyle.Render("  cache is empty"))
	}

	now := time.Now()
	end := m.offset + rows
	if end > len(m.entries) {
		end = len(m.entries)
	}
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		marker := "  "
		urlStyle := entryURLStyle
		if i == m.cursor {
			marker = "> "
			urlStyle = selectedRowStyle
		}

		age := now.Sub(e.FetchedAt)
		ageLabel := format.FormatExecutionDuration(age)
		if m.ttl > 0 && age > m.ttl {
			ageLabel = entryStaleStyle.Render(ageLabel + " stale")
		}

		b.WriteString(fmt.Sprintf("%s%s  %s  %s",
			marker,
			urlStyle.Render(truncate(e.URL, m.width-30)),
			format.FormatBytes(uint64(e.Size)),
			ageLabel))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return panelStyle.Width(m.width - 2).Render(b.String())
}

// renderFooter renders the key help line and the last action status.
func (m Model) renderFooter() string {
	bindings := []key.Binding{
		m.keymap.Quit, m.keymap.Refresh, m.keymap.Remove, m.keymap.Purge,
		m.keymap.Up, m.keymap.Down,
	}
	parts := make([]string, 0, len(bindings)+1)
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, footerKeyStyle.Render(h.Key)+" "+footerDescStyle.Render(h.Desc))
	}

	if m.status != "" {
		style := statusOKStyle
		if m.statusErr {
			style = statusErrorStyle
		}
		parts = append(parts, style.Render(m.status))
	}

	return strings.Join(parts, footerDescStyle.Render(" • "))
}

// renderGauge renders a horizontal fill gauge of the given width.
func renderGauge(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return gaugeBarStyle.Render(strings.Repeat("█", filled)) +
		gaugeEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// truncate shortens s to at most n characters, appending an ellipsis.
// Slicing happens on runes so multibyte URLs are never cut mid-sequence.
func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// Run is the public entry point for the TUI mode.
// It creates the bubbletea program, runs it, and returns the exit code.
func Run(ctx context.Context, cache *imgcache.Cache, cfg config.AppConfig, version string) int {
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initTUIStyles()

	model := NewModel(cache, cfg, version)

	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Send(ContextCancelledMsg{Err: ctx.Err()})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return apperrors.ExitErrorGeneric
	}

	if m, ok := finalModel.(Model); ok {
		return m.exitCode
	}
	return apperrors.ExitSuccess
}

// tickCmd returns a command that sends a TickMsg after the refresh interval.
func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// snapshotCmd samples cache and system state off the UI thread.
func snapshotCmd(cache *imgcache.Cache) tea.Cmd {
	return func() tea.Msg {
		stats := cache.Stats()
		return SnapshotMsg{
			Stats:   stats,
			Entries: cache.Entries(),
			Sys:     sysmon.Sample(stats.Dir),
			Mem:     metrics.ReadMemory(),
		}
	}
}

// removeCmd removes a single entry.
func removeCmd(cache *imgcache.Cache, url string) tea.Cmd {
	return func() tea.Msg {
		return MutationMsg{Action: "remove", Err: cache.Remove(url)}
	}
}

// purgeCmd empties the cache.
func purgeCmd(cache *imgcache.Cache) tea.Cmd {
	return func() tea.Msg {
		return MutationMsg{Action: "purge", Err: cache.Purge()}
	}
}

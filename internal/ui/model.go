// ABOUTME: Bubbletea model for the click mute TUI
// ABOUTME: Toggles, delay editing, config save and a waveform strip
package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Resonate-Protocol/clickmute-go/internal/clickmute"
	"github.com/Resonate-Protocol/clickmute-go/internal/config"
	"github.com/Resonate-Protocol/clickmute-go/pkg/sampler"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	refreshInterval = 100 * time.Millisecond
	rearmDelay      = 200 * time.Millisecond
	delayStep       = 0.005
	waveColumns     = 52
	waveRows        = 7
)

// View selects what the waveform strip shows
type View int

const (
	ViewNone View = iota
	ViewLive
	ViewCapture
)

func (v View) String() string {
	switch v {
	case ViewLive:
		return "Live signal"
	case ViewCapture:
		return "Capture"
	default:
		return "No view"
	}
}

// Param is an editable delay
type Param int

const (
	ParamOffset Param = iota
	ParamDuration
	ParamFade
	numParams
)

type paramSpec struct {
	label    string
	min, max float64
}

var params = [numParams]paramSpec{
	{"Mute offset", -0.2, 0.1},
	{"Mute duration", 0, 1},
	{"Fade time", delayStep, 0.2},
}

func (p Param) value(d *config.Delays) *float64 {
	switch p {
	case ParamOffset:
		return &d.MuteOffset
	case ParamDuration:
		return &d.MuteDuration
	default:
		return &d.Fade
	}
}

var (
	onStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	offStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	waveStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Model represents the TUI state
type Model struct {
	info       *clickmute.Info
	control    *clickmute.Control
	cfg        config.Config
	configPath string
	save       func(path string, cfg config.Config) error

	view     View
	origin   bool
	selected Param
	message  string

	// Snapshot refreshed on every tick
	toggles    clickmute.Toggles
	clicks     uint64
	violations uint64
	hold       bool
	auto       bool
	autoHold   bool
	captured   bool
	mins, maxs []float32

	// From StatusMsg
	backend    string
	sampleRate int
	devices    []string
	dumpDrops  uint64

	width  int
	height int
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// StatusMsg updates TUI state from outside the processor
type StatusMsg struct {
	Backend     string
	SampleRate  int
	Devices     []string
	DumpDropped uint64
	Message     string
}

// Init starts the refresh ticker
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.refresh()
		return m, tick()
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// refresh snapshots the status surface
func (m *Model) refresh() {
	if m.info == nil {
		return
	}
	m.toggles = m.info.Toggles()
	m.clicks = m.info.NumClicks()
	m.violations = m.info.InvariantViolations()

	m.info.WithSamplers(func(live, click *sampler.Sampler) {
		m.hold = click.IsInHold()
		m.auto = click.IsInAuto()
		m.autoHold = click.IsInAutoHold()
		m.captured = (m.hold || m.autoHold) && !click.IsEmpty() && m.view == ViewCapture

		m.mins, m.maxs = nil, nil
		switch {
		case m.view == ViewNone:
		case m.auto && !m.autoHold:
			// waiting for the next click
		case m.captured:
			m.mins, m.maxs = click.Envelope(waveColumns)
		default:
			m.mins, m.maxs = live.Envelope(waveColumns)
		}
	})
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderDelays())
	b.WriteString("\n")
	b.WriteString(m.renderCapture())
	if w := m.renderWave(); w != "" {
		b.WriteString("\n")
		b.WriteString(w)
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return boxStyle.Render(b.String())
}

func toggle(label string, on bool) string {
	if on {
		return onStyle.Render("[x] " + label)
	}
	return offStyle.Render("[ ] " + label)
}

// renderHeader renders the toggles and counters
func (m Model) renderHeader() string {
	s := fmt.Sprintf("Click Mute  %s  %s  %s   #%d clicks",
		toggle("Mute", m.toggles.MuteEnabled),
		toggle("Invert", m.toggles.InvertMute),
		toggle("Background", m.toggles.BackgroundNoise),
		m.clicks)
	if m.violations > 0 {
		s += fmt.Sprintf("  (%d clamped)", m.violations)
	}
	if m.backend != "" {
		s += fmt.Sprintf("\n%s @ %d Hz, %d input devices", m.backend, m.sampleRate, len(m.devices))
	}
	if m.dumpDrops > 0 {
		s += fmt.Sprintf(", dump dropped %d frames", m.dumpDrops)
	}
	return s + "\n"
}

// renderDelays renders the editable delays
func (m Model) renderDelays() string {
	var b strings.Builder
	for p := Param(0); p < numParams; p++ {
		line := fmt.Sprintf("%-14s %+7.3fs %s", params[p].label, *p.value(&m.cfg.Delays),
			renderSlider(*p.value(&m.cfg.Delays), params[p].min, params[p].max, 20))
		if p == m.selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if m.message != "" {
		b.WriteString(m.message + "\n")
	}
	return b.String()
}

// renderCapture renders the view selector and click sampler state
func (m Model) renderCapture() string {
	s := "View: " + m.view.String()
	if m.view == ViewCapture {
		s += "  " + toggle("Hold", m.hold) + "  " + toggle("Auto", m.auto) + "  " + toggle("Origin at click", m.origin)
	}
	return s + "\n"
}

// renderWave draws the min/max envelope as a strip of block characters
func (m Model) renderWave() string {
	if len(m.mins) == 0 {
		return ""
	}
	rows := make([][]rune, waveRows)
	for r := range rows {
		rows[r] = []rune(strings.Repeat(" ", len(m.mins)))
	}
	for c := range m.mins {
		top := amplitudeRow(m.maxs[c])
		bottom := amplitudeRow(m.mins[c])
		for r := top; r <= bottom; r++ {
			rows[r][c] = '█'
		}
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(waveStyle.Render(string(row)) + "\n")
	}
	b.WriteString(m.renderAxis())
	return b.String()
}

// amplitudeRow maps [-1, 1] to a row, top row for +1
func amplitudeRow(v float32) int {
	v = max(-1, min(1, v))
	mid := float64(waveRows-1) / 2
	return int(math.Round(mid - float64(v)*mid))
}

func (m Model) renderAxis() string {
	if !m.captured {
		return "live\n"
	}
	origin := 0.0
	if m.origin {
		origin = m.cfg.Delays.MuteOffset
	}
	return fmt.Sprintf("%+.0fms from click\n", origin*1000)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return "m:Mute i:Invert b:Background v:View h:Hold a:Auto o:Origin ↑/↓:Select ←/→:Adjust s:Save q:Quit"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "m":
		if m.info != nil {
			m.info.SetMuteEnabled(!m.info.MuteEnabled())
		}
	case "i":
		if m.info != nil {
			m.info.SetInvertMute(!m.info.InvertMute())
		}
	case "b":
		if m.info != nil && !m.info.InvertMute() {
			m.info.SetBackgroundNoise(!m.info.BackgroundNoise())
		}
	case "v":
		m.view = (m.view + 1) % 3
		if m.view == ViewLive {
			m.withClick(func(click *sampler.Sampler) { click.Live() })
		}
	case "h":
		if m.view == ViewCapture {
			m.withClick(func(click *sampler.Sampler) {
				if click.IsInHold() {
					click.AcquireAfter(time.Now().Add(rearmDelay))
					click.Clear()
				} else {
					click.Hold()
				}
			})
		}
	case "a":
		if m.view == ViewCapture {
			m.withClick(func(click *sampler.Sampler) {
				if click.IsInAuto() {
					click.Hold()
				} else {
					click.Auto()
				}
			})
		}
	case "o":
		m.origin = !m.origin
	case "up":
		m.selected = (m.selected + numParams - 1) % numParams
	case "down":
		m.selected = (m.selected + 1) % numParams
	case "left":
		m.adjust(-delayStep)
	case "right":
		m.adjust(delayStep)
	case "s":
		if err := m.save(m.configPath, m.cfg); err != nil {
			m.message = fmt.Sprintf("Save failed: %v", err)
		} else {
			m.message = "Saved " + m.configPath
		}
	}

	m.refresh()
	return m, nil
}

func (m *Model) withClick(fn func(click *sampler.Sampler)) {
	if m.info == nil {
		return
	}
	m.info.WithSamplers(func(_, click *sampler.Sampler) { fn(click) })
}

// adjust changes the selected delay and sends it to the processor
func (m *Model) adjust(delta float64) {
	next := m.cfg
	rng := params[m.selected]
	v := m.selected.value(&next.Delays)
	*v = math.Round((*v+delta)*1000) / 1000
	*v = max(rng.min, min(rng.max, *v))

	if m.control != nil {
		if err := m.control.Send(next); err != nil {
			m.message = err.Error()
			return
		}
	}
	m.cfg = next
	m.message = ""
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Backend != "" {
		m.backend = msg.Backend
		m.sampleRate = msg.SampleRate
	}
	if msg.Devices != nil {
		m.devices = msg.Devices
	}
	if msg.DumpDropped != 0 {
		m.dumpDrops = msg.DumpDropped
	}
	if msg.Message != "" {
		m.message = msg.Message
	}
}

// Utility functions
func renderSlider(value, lo, hi float64, width int) string {
	pos := int(math.Round((value - lo) / (hi - lo) * float64(width-1)))
	pos = max(0, min(width-1, pos))
	var b strings.Builder
	for i := 0; i < width; i++ {
		if i == pos {
			b.WriteString("●")
		} else {
			b.WriteString("─")
		}
	}
	return b.String()
}

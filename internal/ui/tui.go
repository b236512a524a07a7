// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the click mute status screen
package ui

import (
	"github.com/Resonate-Protocol/clickmute-go/internal/clickmute"
	"github.com/Resonate-Protocol/clickmute-go/internal/config"
	tea "github.com/charmbracelet/bubbletea"
)

// Options wire the model to the running processor
type Options struct {
	Info       *clickmute.Info
	Control    *clickmute.Control
	Config     config.Config
	ConfigPath string
}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultFilename
	}
	return Model{
		info:       opts.Info,
		control:    opts.Control,
		cfg:        opts.Config,
		configPath: path,
		save:       config.Save,
		view:       ViewNone,
	}
}

// Run creates the TUI program; the caller runs it
func Run(opts Options) *tea.Program {
	return tea.NewProgram(NewModel(opts), tea.WithAltScreen())
}

package internal

import (
	"fyne.io/fyne/v2"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	link   string
	gui    fyne.App
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithShareLink sets the host a joiner connects to. Without it the joiner
// browses the local network.
func WithShareLink(link string) Option {
	return func(a *application) {
		a.link = link
	}
}

// WithApp sets the fyne application windows are created in.
func WithApp(gui fyne.App) Option {
	return func(a *application) {
		a.gui = gui
	}
}

package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"LocalDoodle/internal/net"
	"LocalDoodle/internal/session"
	"LocalDoodle/internal/state"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Board BoardConfig       `yaml:"board"`
	Brush BrushConfig       `yaml:"brush"`
	Sync  SyncConfig        `yaml:"sync"`
	Net   NetConfig         `yaml:"net"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Board.Validate(); err != nil {
		return fmt.Errorf("board: %w", err)
	}
	if err := c.Brush.Validate(); err != nil {
		return fmt.Errorf("brush: %w", err)
	}
	if err := c.Sync.Validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := c.Net.Validate(); err != nil {
		return fmt.Errorf("net: %w", err)
	}
	return nil
}

// Settings converts the board, brush and sync sections into what sessions are
// created with. The config must have been validated.
func (c *Config) Settings() (session.Settings, error) {
	bg, err := state.ParseColor(c.Board.Background)
	if err != nil {
		return session.Settings{}, fmt.Errorf("board background: %w", err)
	}
	brush, err := c.Brush.Value()
	if err != nil {
		return session.Settings{}, err
	}
	return session.Settings{
		Width:          c.Board.Width,
		Height:         c.Board.Height,
		Background:     bg.Color(),
		Brush:          brush,
		FlushThreshold: c.Sync.FlushThreshold,
	}, nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	// Name is the identity announced to peers.
	Name string `yaml:"name"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
		validation.Field(&c.Name, validation.Required, validation.By(notBlank)),
	)
}

// BoardConfig holds the canvas created for every session.
type BoardConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"`
}

// Validate validates the board configuration.
func (c *BoardConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(1), validation.Max(8192)),
		validation.Field(&c.Height, validation.Required, validation.Min(1), validation.Max(8192)),
		validation.Field(&c.Background, validation.Required, validation.By(isColor)),
	)
}

// BrushConfig holds the initial brush.
type BrushConfig struct {
	Size  int    `yaml:"size"`
	Color string `yaml:"color"`
}

// Validate validates the brush configuration.
func (c *BrushConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Size, validation.Required, validation.Min(1), validation.Max(200)),
		validation.Field(&c.Color, validation.Required, validation.By(isColor)),
	)
}

// Value returns the brush described by the configuration.
func (c *BrushConfig) Value() (state.Brush, error) {
	rgb, err := state.ParseColor(c.Color)
	if err != nil {
		return state.Brush{}, fmt.Errorf("brush color: %w", err)
	}
	return state.Brush{Size: c.Size, Color: rgb}, nil
}

// SyncConfig holds how strokes are batched and queued for the peer.
type SyncConfig struct {
	FlushThreshold int `yaml:"flush_threshold"`
	SendBuffer     int `yaml:"send_buffer"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.FlushThreshold, validation.Required, validation.Min(1)),
		validation.Field(&c.SendBuffer, validation.Required, validation.Min(1)),
	)
}

// NetConfig holds the listener and discovery configuration.
type NetConfig struct {
	Port            int           `yaml:"port"`
	MDNS            bool          `yaml:"mdns"`
	DiscoverTimeout time.Duration `yaml:"discover_timeout"`
}

// Address returns the host's listen address.
func (c *NetConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the network configuration.
func (c *NetConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.DiscoverTimeout, validation.When(c.MDNS, validation.Required, validation.Min(time.Millisecond))),
	)
}

func isColor(value any) error {
	s, _ := value.(string)
	if _, err := state.ParseColor(s); err != nil {
		return errors.New("must be #rrggbb or a colour name")
	}
	return nil
}

func notBlank(value any) error {
	s, _ := value.(string)
	if state.NormalizeID(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	name, err := os.Hostname()
	if err != nil || name == "" {
		name = "localdoodle"
	}
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
			Name:      name,
		},
		Board: BoardConfig{
			Width:      300,
			Height:     250,
			Background: "white",
		},
		Brush: BrushConfig{
			Size:  2,
			Color: "#ff0000",
		},
		Sync: SyncConfig{
			FlushThreshold: state.DefaultFlushThreshold,
			SendBuffer:     net.DefaultSendBuffer,
		},
		Net: NetConfig{
			Port:            8888,
			MDNS:            true,
			DiscoverTimeout: 3 * time.Second,
		},
	}
}


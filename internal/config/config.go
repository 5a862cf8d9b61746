package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config represents the application configuration
type Config struct {
	AppName    string           `json:"app_name"`
	Version    string           `json:"version"`
	Vision     VisionConfig     `json:"vision"`
	Classifier ClassifierConfig `json:"classifier"`
	Tracker    TrackerConfig    `json:"tracker"`
	Engine     EngineConfig     `json:"engine"`
	Storage    StorageConfig    `json:"storage"`
	Interface  InterfaceConfig  `json:"interface"`
	Pipeline   PipelineConfig   `json:"pipeline"`
}

// VisionConfig contains capture and stability settings
type VisionConfig struct {
	ScreenRegion       Region  `json:"screen_region"`
	CaptureFPS         int     `json:"capture_fps"`
	StabilityThreshold float64 `json:"stability_threshold"`
	// VideoPath replays a recording instead of capturing the screen
	VideoPath string `json:"video_path,omitempty"`
}

// Region defines a screen capture area
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ClassifierConfig describes the external piece classifier
type ClassifierConfig struct {
	Command []string `json:"command"`
	// Output is "placement" or "logits"
	Output        string  `json:"output"`
	MinConfidence float64 `json:"min_confidence"`
	WorkDir       string  `json:"work_dir"`
}

// TrackerConfig contains reconstruction policy
type TrackerConfig struct {
	// POV is "white" or "black", the side at the bottom of the screen
	POV                string `json:"pov"`
	TrustRawPlacement  bool   `json:"trust_raw_placement"`
	SuppressDuplicates bool   `json:"suppress_duplicates"`
	ValidatePositions  bool   `json:"validate_positions"`
	RecordGame         bool   `json:"record_game"`
}

// EngineConfig contains move-search engine settings
type EngineConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	Depth      int    `json:"depth"`
	MoveTimeMs int    `json:"move_time_ms"`
}

// StorageConfig contains journal settings. An empty path disables the journal.
type StorageConfig struct {
	JournalPath string `json:"journal_path"`
	JournalSize int    `json:"journal_size"`
	PGNPath     string `json:"pgn_path"`
}

// InterfaceConfig contains logging and monitoring settings
type InterfaceConfig struct {
	LogLevel    string `json:"log_level"`
	LogPath     string `json:"log_path"`
	MetricsAddr string `json:"metrics_addr"`
}

// PipelineConfig contains producer settings
type PipelineConfig struct {
	QueueSize     int `json:"queue_size"`
	MaxReadErrors int `json:"max_read_errors"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		AppName: "fentrack",
		Version: "1.0.0",
		Vision: VisionConfig{
			ScreenRegion:       Region{X: 100, Y: 100, Width: 800, Height: 800},
			CaptureFPS:         4,
			StabilityThreshold: 0.99,
		},
		Classifier: ClassifierConfig{
			Command:       []string{"python3", "classifier/serve.py"},
			Output:        "placement",
			MinConfidence: 0.5,
			WorkDir:       "data/frames",
		},
		Tracker: TrackerConfig{
			POV:                "white",
			TrustRawPlacement:  true,
			SuppressDuplicates: true,
			ValidatePositions:  true,
			RecordGame:         true,
		},
		Engine: EngineConfig{
			Enabled:    false,
			Path:       "stockfish",
			MoveTimeMs: 500,
		},
		Storage: StorageConfig{
			JournalPath: "data/journal.db",
			JournalSize: 10000,
			PGNPath:     "data/game.pgn",
		},
		Interface: InterfaceConfig{
			LogLevel: "info",
			LogPath:  "logs/fentrack.log",
		},
		Pipeline: PipelineConfig{
			QueueSize:     4,
			MaxReadErrors: 20,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Vision.CaptureFPS < 1 || c.Vision.CaptureFPS > 60 {
		return fmt.Errorf("capture_fps must be between 1 and 60, got %d", c.Vision.CaptureFPS)
	}
	if c.Vision.StabilityThreshold <= 0 || c.Vision.StabilityThreshold > 1 {
		return fmt.Errorf("stability_threshold must be in (0, 1], got %v", c.Vision.StabilityThreshold)
	}
	if c.Vision.VideoPath == "" {
		r := c.Vision.ScreenRegion
		if r.Width < 8 || r.Height < 8 {
			return fmt.Errorf("screen_region %dx%d is too small", r.Width, r.Height)
		}
	}

	if len(c.Classifier.Command) == 0 {
		return fmt.Errorf("classifier command is required")
	}
	switch c.Classifier.Output {
	case "placement", "logits":
	default:
		return fmt.Errorf("classifier output must be placement or logits, got %q", c.Classifier.Output)
	}
	if c.Classifier.MinConfidence < 0 || c.Classifier.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0, 1], got %v", c.Classifier.MinConfidence)
	}

	switch strings.ToLower(c.Tracker.POV) {
	case "white", "black":
	default:
		return fmt.Errorf("pov must be white or black, got %q", c.Tracker.POV)
	}

	if c.Engine.Enabled && c.Engine.Path == "" {
		return fmt.Errorf("engine path is required when the engine is enabled")
	}
	if c.Engine.Depth < 0 || c.Engine.MoveTimeMs < 0 {
		return fmt.Errorf("engine depth and move time must not be negative")
	}

	if c.Storage.JournalPath != "" && c.Storage.JournalSize < 1 {
		return fmt.Errorf("journal_size must be positive, got %d", c.Storage.JournalSize)
	}

	switch c.Interface.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.Interface.LogLevel)
	}

	if c.Pipeline.QueueSize < 1 {
		return fmt.Errorf("queue_size must be positive, got %d", c.Pipeline.QueueSize)
	}
	if c.Pipeline.MaxReadErrors < 0 {
		return fmt.Errorf("max_read_errors must not be negative, got %d", c.Pipeline.MaxReadErrors)
	}

	return nil
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, falling back to the defaults when it cannot be read
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates the parent directories of every configured output path
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Classifier.WorkDir}
	for _, p := range []string{c.Interface.LogPath, c.Storage.JournalPath, c.Storage.PGNPath} {
		if p != "" {
			dirs = append(dirs, filepath.Dir(p))
		}
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// String returns a short summary
func (c *Config) String() string {
	source := fmt.Sprintf("screen %dx%d@%d,%d",
		c.Vision.ScreenRegion.Width, c.Vision.ScreenRegion.Height,
		c.Vision.ScreenRegion.X, c.Vision.ScreenRegion.Y)
	if c.Vision.VideoPath != "" {
		source = "video " + c.Vision.VideoPath
	}
	return fmt.Sprintf("%s %s: %s, %d fps, threshold %.3f, pov %s, classifier %s (%s)",
		c.AppName, c.Version,
		source,
		c.Vision.CaptureFPS,
		c.Vision.StabilityThreshold,
		c.Tracker.POV,
		strings.Join(c.Classifier.Command, " "),
		c.Classifier.Output,
	)
}

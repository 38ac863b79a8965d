package sprig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// RunConfig configures the window and loop started by Run. It can be filled
// in code or loaded from YAML with LoadRunConfig.
type RunConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TPS       int    `yaml:"tps"`
	ShowFPS   bool   `yaml:"show_fps"`
	Resizable bool   `yaml:"resizable"`
	VSync     *bool  `yaml:"vsync"` // pointer to distinguish unset vs false
	Debug     bool   `yaml:"debug"`
	// ClearColor is an SVG color name ("black", "cornflowerblue"). Empty
	// leaves the scene's ClearColor alone.
	ClearColor string `yaml:"clear_color"`
}

// DefaultRunConfig returns the configuration used for unset fields.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Title:  "sprig",
		Width:  640,
		Height: 480,
		TPS:    ebiten.DefaultTPS,
	}
}

// maxRunConfigSize bounds config files read by LoadRunConfigFile.
const maxRunConfigSize = 1024 * 1024

// LoadRunConfig parses YAML into a RunConfig. Fields missing from data keep
// their DefaultRunConfig values.
func LoadRunConfig(data []byte) (RunConfig, error) {
	cfg := DefaultRunConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("sprig: parse run config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// LoadRunConfigFile reads and parses a YAML run config file.
func LoadRunConfigFile(path string) (RunConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("sprig: run config: %w", err)
	}
	if info.Size() > maxRunConfigSize {
		return RunConfig{}, fmt.Errorf("sprig: run config %s is %d bytes, limit %d", path, info.Size(), maxRunConfigSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("sprig: run config: %w", err)
	}
	return LoadRunConfig(data)
}

func (c RunConfig) validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("sprig: run config size %dx%d must be positive", c.Width, c.Height))
	}
	if c.TPS < 0 {
		errs = append(errs, fmt.Errorf("sprig: run config tps %d must not be negative", c.TPS))
	}
	if c.ClearColor != "" {
		if _, ok := ParseColorName(c.ClearColor); !ok {
			errs = append(errs, fmt.Errorf("sprig: run config clear_color %q is not a known color name", c.ClearColor))
		}
	}
	return errors.Join(errs...)
}

// ParseColorName looks up an SVG 1.1 color name, case-insensitively.
func ParseColorName(name string) (Color, bool) {
	c, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Color{}, false
	}
	return Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}, true
}

// game adapts a Scene to ebiten.Game.
type game struct {
	scene *Scene
	cfg   RunConfig
}

func (g *game) Update() error {
	return g.scene.Update()
}

func (g *game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// Run opens a window and drives scene until the window is closed or an
// update returns an error. Zero fields of cfg take their defaults.
func Run(scene *Scene, cfg RunConfig) error {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return err
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetTPS(cfg.TPS)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if cfg.VSync != nil {
		ebiten.SetVsyncEnabled(*cfg.VSync)
	}
	if cfg.ClearColor != "" {
		scene.ClearColor, _ = ParseColorName(cfg.ClearColor)
	}
	if cfg.Debug {
		scene.SetDebugMode(true)
	}
	scene.ShowFPS(cfg.ShowFPS)

	return ebiten.RunGame(&game{scene: scene, cfg: cfg})
}

func (c RunConfig) withDefaults() RunConfig {
	d := DefaultRunConfig()
	if c.Title == "" {
		c.Title = d.Title
	}
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.Height == 0 {
		c.Height = d.Height
	}
	if c.TPS == 0 {
		c.TPS = d.TPS
	}
	return c
}

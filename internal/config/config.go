// Package config loads bingo.yaml and BINGO_* environment overrides into
// typed settings for every pipeline step.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"bingo-kit/internal/extract"
	"bingo-kit/internal/grid"
)

// EnvPrefix prefixes environment overrides, e.g. BINGO_DETECTION_DARK_THRESHOLD.
const EnvPrefix = "BINGO"

// Config holds all settings.
type Config struct {
	Detection DetectionConfig `mapstructure:"detection"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Compose   ComposeConfig   `mapstructure:"compose"`
	Output    OutputConfig    `mapstructure:"output"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Log       LogConfig       `mapstructure:"log"`
	Seed      int64           `mapstructure:"seed"` // 0 means seed from the clock
}

// DetectionConfig mirrors grid.DetectionParams for the first pass.
type DetectionConfig struct {
	Method          string  `mapstructure:"method"`
	DarkThreshold   int     `mapstructure:"dark_threshold"`
	EdgeDelta       int     `mapstructure:"edge_delta"`
	RowSampleStart  float64 `mapstructure:"row_sample_start"`
	RowSampleEnd    float64 `mapstructure:"row_sample_end"`
	ColSampleStart  float64 `mapstructure:"col_sample_start"`
	ColSampleEnd    float64 `mapstructure:"col_sample_end"`
	MinDarkFraction float64 `mapstructure:"min_dark_fraction"`
	MinRunFraction  float64 `mapstructure:"min_run_fraction"`
	MergeDistance   int     `mapstructure:"merge_distance"`
	MinSpacingRows  int     `mapstructure:"min_spacing_rows"`
	MinSpacingCols  int     `mapstructure:"min_spacing_cols"`
}

// ExtractConfig mirrors extract.Options.
type ExtractConfig struct {
	Mode         string `mapstructure:"mode"`
	LineWidth    int    `mapstructure:"line_width"`
	MinBuffer    int    `mapstructure:"min_buffer"`
	TargetWidth  int    `mapstructure:"target_width"`
	TargetHeight int    `mapstructure:"target_height"`
}

// ComposeConfig configures card generation.
type ComposeConfig struct {
	Shuffle bool   `mapstructure:"shuffle"`
	Free    string `mapstructure:"free"` // "row,col"
	Count   int    `mapstructure:"count"`
}

// OutputConfig names the files written by split and deal.
type OutputConfig struct {
	SquaresDir     string `mapstructure:"squares_dir"`
	Background     string `mapstructure:"background"`
	GridConfig     string `mapstructure:"grid_config"`
	SaveGridConfig bool   `mapstructure:"save_grid_config"`
	CardsDir       string `mapstructure:"cards_dir"`
}

// OCRConfig selects and configures the square labeler.
type OCRConfig struct {
	Engine     string  `mapstructure:"engine"` // tesseract or gemini
	Language   string  `mapstructure:"language"`
	Project    string  `mapstructure:"project"`
	Region     string  `mapstructure:"region"`
	Model      string  `mapstructure:"model"`
	Similarity float64 `mapstructure:"similarity"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	p := grid.DefaultParams()
	v.SetDefault("detection.method", p.Method.String())
	v.SetDefault("detection.dark_threshold", int(p.DarkThreshold))
	v.SetDefault("detection.edge_delta", p.EdgeDelta)
	v.SetDefault("detection.row_sample_start", p.RowSampleStart)
	v.SetDefault("detection.row_sample_end", p.RowSampleEnd)
	v.SetDefault("detection.col_sample_start", p.ColSampleStart)
	v.SetDefault("detection.col_sample_end", p.ColSampleEnd)
	v.SetDefault("detection.min_dark_fraction", p.MinDarkFraction)
	v.SetDefault("detection.min_run_fraction", p.MinRunFraction)
	v.SetDefault("detection.merge_distance", p.MergeDistance)
	v.SetDefault("detection.min_spacing_rows", p.MinSpacingRows)
	v.SetDefault("detection.min_spacing_cols", p.MinSpacingCols)

	o := extract.DefaultOptions()
	v.SetDefault("extract.mode", o.Mode.String())
	v.SetDefault("extract.line_width", o.LineWidth)
	v.SetDefault("extract.min_buffer", o.MinBuffer)
	v.SetDefault("extract.target_width", 0)
	v.SetDefault("extract.target_height", 0)

	v.SetDefault("compose.shuffle", true)
	v.SetDefault("compose.free", fmt.Sprintf("%d,%d", grid.FreeSpace.Row, grid.FreeSpace.Col))
	v.SetDefault("compose.count", 10)

	v.SetDefault("output.squares_dir", "squares")
	v.SetDefault("output.background", "background_template.png")
	v.SetDefault("output.grid_config", "grid_config.json")
	v.SetDefault("output.save_grid_config", true)
	v.SetDefault("output.cards_dir", "cards")

	v.SetDefault("ocr.engine", "tesseract")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.project", "")
	v.SetDefault("ocr.region", "")
	v.SetDefault("ocr.model", "")
	v.SetDefault("ocr.similarity", 0.85)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("seed", 0)
}

// Load reads settings into a Config. path names an explicit config file;
// when empty, bingo.yaml is looked up in the working directory and its
// absence is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bingo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// DetectionParams converts the detection section to first-pass parameters.
func (c *Config) DetectionParams() (grid.DetectionParams, error) {
	d := c.Detection
	method, err := grid.ParseScanMethod(d.Method)
	if err != nil {
		return grid.DetectionParams{}, err
	}
	if d.DarkThreshold < 0 || d.DarkThreshold > 255 {
		return grid.DetectionParams{}, fmt.Errorf("dark threshold %d out of range", d.DarkThreshold)
	}

	p := grid.DefaultParams().WithMethod(method).
		WithThreshold(uint8(d.DarkThreshold)).
		WithSampleWindow(d.RowSampleStart, d.RowSampleEnd, d.ColSampleStart, d.ColSampleEnd).
		WithSpacing(d.MinSpacingRows, d.MinSpacingCols)
	p.EdgeDelta = d.EdgeDelta
	p.MinDarkFraction = d.MinDarkFraction
	p.MinRunFraction = d.MinRunFraction
	p.MergeDistance = d.MergeDistance

	if err := p.Validate(); err != nil {
		return grid.DetectionParams{}, err
	}
	return p, nil
}

// ExtractOptions converts the extract section.
func (c *Config) ExtractOptions() (extract.Options, error) {
	mode, err := extract.ParseMode(c.Extract.Mode)
	if err != nil {
		return extract.Options{}, err
	}
	return extract.Options{
		Mode:         mode,
		LineWidth:    c.Extract.LineWidth,
		MinBuffer:    c.Extract.MinBuffer,
		TargetWidth:  c.Extract.TargetWidth,
		TargetHeight: c.Extract.TargetHeight,
	}, nil
}

// FreeCell parses the free-space cell.
func (c *Config) FreeCell() (grid.Cell, error) {
	return grid.ParseCell(c.Compose.Free)
}

// Apply configures logger from the log section.
func (l LogConfig) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	switch l.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", l.Format)
	}
	return nil
}

package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nawawimhz/surat-generator/models"

	"gopkg.in/yaml.v3"
)

//go:embed letters.yaml
var defaultLettersYAML []byte

// LetterConfig is the per-deployment configuration of the letter templates:
// issuing village identity, fixed document numbers and the option lists of
// the form selects.
type LetterConfig struct {
	Locale   string                `yaml:"locale"`
	Timezone TimezoneConfig        `yaml:"timezone"`
	Village  VillageConfig         `yaml:"village"`
	QR       QRConfig              `yaml:"qr"`
	Export   ExportConfig          `yaml:"export"`
	Letters  map[string]LetterSpec `yaml:"letters"`
	Options  OptionLists           `yaml:"options"`
}

type TimezoneConfig struct {
	Label       string `yaml:"label"`
	OffsetHours int    `yaml:"offset_hours"`
}

// Location returns the fixed zone dates are interpreted in.
func (t TimezoneConfig) Location() *time.Location {
	return time.FixedZone(t.Label, t.OffsetHours*3600)
}

type VillageConfig struct {
	Name     string `yaml:"name"`
	District string `yaml:"district"`
	Regency  string `yaml:"regency"`
	Address  string `yaml:"address"`
	Email    string `yaml:"email"`
	Website  string `yaml:"website"`
	Logo     string `yaml:"logo"`
	QRLabel  string `yaml:"qr_label"`
}

type QRConfig struct {
	Width  int    `yaml:"width"`
	Margin int    `yaml:"margin"`
	Dark   string `yaml:"dark"`
	Light  string `yaml:"light"`
}

type ExportConfig struct {
	MarginsMM []float64 `yaml:"margins_mm"`
	Format    string    `yaml:"format"`
	Quality   float64   `yaml:"quality"`
}

type LetterSpec struct {
	Number string `yaml:"number"`
	Label  string `yaml:"label"`
	Title  string `yaml:"title"`
}

type OptionLists struct {
	Sex           []string `yaml:"sex" json:"jenis_kelamin"`
	Religion      []string `yaml:"religion" json:"agama"`
	MaritalStatus []string `yaml:"marital_status" json:"status_perkawinan"`
	Purpose       []string `yaml:"purpose" json:"keperluan"`
	DeathPlace    []string `yaml:"death_place" json:"lokasi_meninggal"`
	DeathCause    []string `yaml:"death_cause" json:"penyebab_kematian"`
}

// Letter returns the spec of a letter type. Unknown types yield a zero spec;
// Validate guarantees every known type is present.
func (c *LetterConfig) Letter(t models.LetterType) LetterSpec {
	return c.Letters[string(t)]
}

// DefaultLetterConfig parses the embedded configuration.
func DefaultLetterConfig() (*LetterConfig, error) {
	return ParseLetterConfig(defaultLettersYAML)
}

// LoadLetterConfig reads the YAML file at path, or the embedded default when
// path is empty.
func LoadLetterConfig(path string) (*LetterConfig, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultLetterConfig()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read letter config: %w", err)
	}
	return ParseLetterConfig(raw)
}

func ParseLetterConfig(raw []byte) (*LetterConfig, error) {
	var cfg LetterConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse letter config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every letter type is configured and that the QR and
// export parameters are usable.
func (c *LetterConfig) Validate() error {
	var problems []string

	for _, t := range models.LetterTypes {
		spec, ok := c.Letters[string(t)]
		if !ok {
			problems = append(problems, fmt.Sprintf("letters.%s missing", t))
			continue
		}
		if strings.TrimSpace(spec.Number) == "" {
			problems = append(problems, fmt.Sprintf("letters.%s.number is empty", t))
		}
		if strings.TrimSpace(spec.Label) == "" {
			problems = append(problems, fmt.Sprintf("letters.%s.label is empty", t))
		}
	}

	if c.Village.Name == "" || c.Village.District == "" || c.Village.Regency == "" {
		problems = append(problems, "village name, district and regency are required")
	}
	if c.QR.Width <= 0 {
		problems = append(problems, "qr.width must be positive")
	}
	if c.QR.Margin < 0 {
		problems = append(problems, "qr.margin must not be negative")
	}
	if len(c.Export.MarginsMM) != 4 {
		problems = append(problems, "export.margins_mm needs four values")
	}
	if c.Export.Quality <= 0 || c.Export.Quality > 1 {
		problems = append(problems, "export.quality must be within (0, 1]")
	}
	switch c.Export.Format {
	case "pdf", "jpeg", "png":
	default:
		problems = append(problems, fmt.Sprintf("export.format %q is not one of pdf, jpeg, png", c.Export.Format))
	}
	if c.Timezone.Label == "" {
		problems = append(problems, "timezone.label is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid letter config: %s", strings.Join(problems, "; "))
	}
	return nil
}

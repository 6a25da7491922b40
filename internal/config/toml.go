package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "config"})

// SetLogOutput points the package logger somewhere other than the default.
func SetLogOutput(l *log.Logger) { logger = l }

func parseEnum[T ~int](names map[T]string, text string) (T, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	for v, n := range names {
		if n == t {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown value %q", text)
}

// UnmarshalText lets TOML carry render modes as strings.
func (m *RenderMode) UnmarshalText(b []byte) error {
	v, err := parseEnum(modeNames, string(b))
	if err != nil {
		return fmt.Errorf("render_mode: %w", err)
	}
	*m = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m RenderMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (c *ColorMode) UnmarshalText(b []byte) error {
	v, err := parseEnum(colorModeNames, string(b))
	if err != nil {
		return fmt.Errorf("color_mode: %w", err)
	}
	*c = v
	return nil
}

func (c ColorMode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (d *DitherMode) UnmarshalText(b []byte) error {
	v, err := parseEnum(ditherNames, string(b))
	if err != nil {
		return fmt.Errorf("dither_mode: %w", err)
	}
	*d = v
	return nil
}

func (d DitherMode) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (s *BGStyle) UnmarshalText(b []byte) error {
	v, err := parseEnum(bgNames, string(b))
	if err != nil {
		return fmt.Errorf("bg_style: %w", err)
	}
	*s = v
	return nil
}

func (s BGStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (c *Curve) UnmarshalText(b []byte) error {
	v, err := parseEnum(curveNames, string(b))
	if err != nil {
		return fmt.Errorf("curve: %w", err)
	}
	*c = v
	return nil
}

func (c Curve) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// File is the on-disk shape: a base configuration plus an optional preset
// library for multi-preset exports. Presets are decoded lazily so each one
// can inherit the base configuration instead of zero values.
type File struct {
	Config
	Presets []toml.Primitive `toml:"preset"`
}

// Preset is a named configuration in the preset library.
type Preset struct {
	Name string `toml:"name"`
	Config
}

// Load reads a TOML configuration file. Missing fields take defaults, every
// numeric field is clamped, and unknown keys are warned about rather than
// rejected. Each preset starts from the base configuration and overrides
// only the keys it names.
func Load(path string) (Config, []Preset, error) {
	f := File{Config: Default()}
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Config{}, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	f.Config.ClampAll()
	f.Config.Audio.Mappings = validMappings(f.Config.Audio.Mappings)

	presets := make([]Preset, 0, len(f.Presets))
	for i, prim := range f.Presets {
		p := Preset{Name: fmt.Sprintf("preset-%d", i+1), Config: f.Config}
		if err := md.PrimitiveDecode(prim, &p); err != nil {
			return Config{}, nil, fmt.Errorf("failed to parse preset %d in %s: %w", i+1, path, err)
		}
		p.Config.ClampAll()
		p.Audio.Mappings = validMappings(p.Audio.Mappings)
		presets = append(presets, p)
	}

	for _, key := range md.Undecoded() {
		logger.Warn("ignoring unknown configuration key", "key", key.String())
	}
	return f.Config, presets, nil
}

func validMappings(ms []Mapping) []Mapping {
	out := ms[:0]
	for _, m := range ms {
		if m.Target != InvertTarget {
			if _, ok := Targets[m.Target]; !ok {
				logger.Warn("ignoring mapping with unknown target", "target", m.Target)
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

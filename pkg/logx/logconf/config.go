package logconf

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"logbridge/pkg/logx"
)

// Config is the logging configuration file.
//
//	<logging level="DEBUG">
//	  <sink name="console" type="console" min="INFO" />
//	  <sink name="file" type="file" path="app.log" min="ERROR" max="FATAL" />
//	</logging>
type Config struct {
	XMLName xml.Name     `xml:"logging" json:"-"`
	Level   string       `xml:"level,attr,omitempty" json:"level,omitempty"`
	Sinks   []SinkConfig `xml:"sink" json:"sinks"`
}

// SinkConfig describes one sink. Min/Max form an inclusive level range;
// Threshold drops records below it. All three are optional.
type SinkConfig struct {
	Name      string `xml:"name,attr" json:"name"`
	Type      string `xml:"type,attr" json:"type"`
	Path      string `xml:"path,attr,omitempty" json:"path,omitempty"`
	Min       string `xml:"min,attr,omitempty" json:"min,omitempty"`
	Max       string `xml:"max,attr,omitempty" json:"max,omitempty"`
	Threshold string `xml:"threshold,attr,omitempty" json:"threshold,omitempty"`
}

const (
	SinkConsole = "console"
	SinkFile    = "file"
)

var ErrInvalidConfig = errors.New("invalid logging config")

// ParseFile reads and validates the config at path.
func ParseFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(path, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format implied by path's extension and validates it.
func Parse(path string, data []byte) (*Config, error) {
	var cfg Config
	switch format(path) {
	case "xml":
		dec := xml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("xml decode: %w", err)
		}
	default:
		jb, err := coerceToJSONBytes(path, data)
		if err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(jb))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("json decode: %w", err)
		}
		// reject trailing tokens (e.g. concatenated JSON)
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			if err == nil {
				return nil, fmt.Errorf("%w: trailing data", ErrInvalidConfig)
			}
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "xml"
	}
}

// Validate checks sink types, names, paths and level names.
func (c *Config) Validate() error {
	if c.Level != "" {
		if _, ok := logx.LookupLevel(c.Level); !ok {
			return fmt.Errorf("%w: level %q", ErrInvalidConfig, c.Level)
		}
	}
	for i, s := range c.Sinks {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: sinks[%d]: name is required", ErrInvalidConfig, i)
		}
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case SinkConsole:
		case SinkFile:
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("%w: sink %q: path is required", ErrInvalidConfig, s.Name)
			}
		default:
			return fmt.Errorf("%w: sink %q: unknown type %q", ErrInvalidConfig, s.Name, s.Type)
		}
		for field, v := range map[string]string{"min": s.Min, "max": s.Max, "threshold": s.Threshold} {
			if v == "" {
				continue
			}
			if _, ok := logx.LookupLevel(v); !ok {
				return fmt.Errorf("%w: sink %q: %s level %q", ErrInvalidConfig, s.Name, field, v)
			}
		}
		r := s.levelRange()
		if r.Min > r.Max {
			return fmt.Errorf("%w: sink %q: empty range %s", ErrInvalidConfig, s.Name, r)
		}
	}
	return nil
}

func (s SinkConfig) levelRange() logx.Range {
	return logx.Range{
		Min: logx.ParseLevel(s.Min, logx.LevelDebug),
		Max: logx.ParseLevel(s.Max, logx.LevelFatal),
	}
}

func hashConfig(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	return hashBytes(b)
}

func hashBytes(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

// coerceToJSONBytes converts YAML config to JSON bytes so we can re-use the strict
// JSON decoder (DisallowUnknownFields) for both formats.
func coerceToJSONBytes(path string, data []byte) ([]byte, error) {
	if format(path) != "yaml" {
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}

	j, err := json.Marshal(normalizeYAML(v))
	if err != nil {
		return nil, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, nil
}

// normalizeYAML ensures all map keys are strings so the result can be JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnknownIngest is the logical name given to ingests missing from the ingest table.
const UnknownIngest = "Unknown Ingest"

// Channels holds the static lookup tables between primary ingests, logical
// channel names and recorder source ids.
type Channels struct {
	Ingests map[string]string `yaml:"ingests" json:"ingests"`
	Sources map[string]int    `yaml:"sources" json:"sources"`
}

// DefaultChannels returns the four-PCR layout of the production deployment.
func DefaultChannels() Channels {
	return Channels{
		Ingests: map[string]string{
			"9C64992CFF3A4A3FA3C635BB7D9B6071": "PCR 1",
			"9526F8488B06423C8C81B942B3D04B89": "PCR 2",
			"69774E0644F94C89A87785972AB7057A": "PCR 3",
			"53994615DC194483B753424DAD50EFE5": "PCR 4",
		},
		Sources: map[string]int{
			"PCR 1": 0,
			"PCR 2": 1,
			"PCR 3": 2,
			"PCR 4": 3,
		},
	}
}

// LogicalName resolves an ingest id. Unmapped ingests resolve to UnknownIngest.
func (c Channels) LogicalName(ingestID string) string {
	if name, ok := c.Ingests[ingestID]; ok {
		return name
	}
	return UnknownIngest
}

// SourceID resolves a logical name to a recorder source id.
func (c Channels) SourceID(logicalName string) (int, bool) {
	id, ok := c.Sources[logicalName]
	return id, ok
}

func (c Channels) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("channel map has no sources")
	}
	for name, id := range c.Sources {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("channel map has an empty logical name")
		}
		if id < 0 {
			return fmt.Errorf("source id for %q must be >= 0, got %d", name, id)
		}
	}
	for ingest, name := range c.Ingests {
		if _, ok := c.Sources[name]; !ok {
			return fmt.Errorf("ingest %s maps to %q which has no source id", ingest, name)
		}
	}
	return nil
}

// LoadChannelsFile reads a YAML channel map.
func LoadChannelsFile(path string) (Channels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Channels{}, err
	}
	var ch Channels
	if err := yaml.Unmarshal(data, &ch); err != nil {
		return Channels{}, fmt.Errorf("invalid channel map file: %w", err)
	}
	if ch.Ingests == nil {
		ch.Ingests = map[string]string{}
	}
	return ch, nil
}

func WithChannels(ch Channels) Option {
	return func(c *Config) {
		c.Channels = ch
	}
}

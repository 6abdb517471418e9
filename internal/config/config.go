package config

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const (
	ActionBlock  = "BLOCK"
	ActionCensor = "CENSOR"
)

//go:embed protection.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("protection.schema.json", schemaJSON)

type Config struct {
	Chat      Chat      `yaml:"chat"`
	Materials Materials `yaml:"materials"`
	Bans      Bans      `yaml:"bans"`

	fileWords []string
}

type Chat struct {
	BannedWords     []string `yaml:"banned_words"`
	BannedWordsFile string   `yaml:"banned_words_file"`
	Action          string   `yaml:"action"`
}

// Materials holds collections in their "typeId:variant-or-star:desc ..." form.
type Materials struct {
	AccessTrust    string `yaml:"access_trust"`
	ContainerTrust string `yaml:"container_trust"`
	Explodable     string `yaml:"explodable"`
}

type Bans struct {
	DefaultDurationHours int `yaml:"default_duration_hours"`
}

func Defaults() Config {
	return Config{
		Chat: Chat{Action: ActionBlock},
		Materials: Materials{
			// Levers, buttons, doors and trapdoors.
			AccessTrust: "64:*:wooden_door 69:*:lever 77:*:stone_button 96:*:trapdoor 143:*:wooden_button ",
			// Chests, furnaces, dispensers, hoppers.
			ContainerTrust: "23:*:dispenser 54:*:chest 61:*:furnace 62:*:lit_furnace 146:*:trapped_chest 154:*:hopper ",
			Explodable:     "46:*:tnt ",
		},
	}
}

func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(raw, filepath.Dir(path))
}

// Parse decodes and validates a protection.yaml document. baseDir resolves a
// relative banned_words_file.
func Parse(raw []byte, baseDir string) (Config, error) {
	if err := validate(raw); err != nil {
		return Config{}, fmt.Errorf("protection.yaml: %w", err)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("protection.yaml: %w", err)
	}
	cfg.Chat.Action = strings.ToUpper(strings.TrimSpace(cfg.Chat.Action))
	if cfg.Chat.Action == "" {
		cfg.Chat.Action = ActionBlock
	}
	if p := strings.TrimSpace(cfg.Chat.BannedWordsFile); p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		cfg.Chat.BannedWordsFile = p
		words, err := readWordFile(p)
		if err != nil {
			return Config{}, fmt.Errorf("banned_words_file: %w", err)
		}
		cfg.fileWords = words
	}
	return cfg, nil
}

// Words is banned_words followed by the entries of banned_words_file.
func (c Config) Words() []string {
	out := make([]string, 0, len(c.Chat.BannedWords)+len(c.fileWords))
	out = append(out, c.Chat.BannedWords...)
	return append(out, c.fileWords...)
}

func validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	// jsonschema expects JSON-shaped values.
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}

func readWordFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

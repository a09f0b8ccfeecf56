package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath     = "config.ini"
	DefaultDataDir  = "data"
	SimulationBlock = "simulation_params"
	OptionsBlock    = "options"
	HorizonsBlock   = "horizons"
)

// ErrConfig wraps every failure to read or interpret a config file.
var ErrConfig = errors.New("config")

var (
	trueAliases  = []string{"true", "True", "t", "yes", "Yes", "y"}
	falseAliases = []string{"false", "False", "f", "no", "No", "n"}
)

// Params is the parsed parameter sweep. Every combination of substrate
// length, k and seed count becomes one ensemble.
type Params struct {
	Simulation SimulationParams `yaml:"simulation_params"`
	Options    Options          `yaml:"options"`
	Horizons   Horizons         `yaml:"horizons,omitempty"`
}

type SimulationParams struct {
	SubstrateLengths List `yaml:"substrate_lengths"`
	KNeighbours      List `yaml:"k_neighbours"`
	Seeds            List `yaml:"seeds"`
}

type Options struct {
	PeriodicBC Flag   `yaml:"periodic_bc"`
	InitSeed   uint32 `yaml:"init_seed"`
	MaxTime    uint32 `yaml:"max_time,omitempty"`
	Workers    int    `yaml:"workers,omitempty"`
	DataDir    string `yaml:"data_dir,omitempty"`
}

func DefaultParams() *Params {
	return &Params{
		Simulation: SimulationParams{
			SubstrateLengths: List{8, 16, 32, 64},
			KNeighbours:      List{1},
			Seeds:            List{100},
		},
		Options: Options{
			PeriodicBC: true,
			DataDir:    DefaultDataDir,
		},
	}
}

// Load reads a parameter file. Files ending in .yaml or .yml are decoded as
// YAML, anything else as INI.
func Load(path string) (*Params, error) {
	if isYAML(path) {
		return loadYAML(path)
	}
	return loadINI(path)
}

// Save writes params in the format implied by the file extension.
func Save(path string, p *Params) error {
	if isYAML(path) {
		data, err := yaml.Marshal(p)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
		return nil
	}

	f := ini.Empty()
	sim := f.Section(SimulationBlock)
	sim.Key("substrate_lengths").SetValue(p.Simulation.SubstrateLengths.String())
	sim.Key("k_neighbours").SetValue(p.Simulation.KNeighbours.String())
	sim.Key("seeds").SetValue(p.Simulation.Seeds.String())

	opts := f.Section(OptionsBlock)
	opts.Key("periodic_bc").SetValue(strconv.FormatBool(bool(p.Options.PeriodicBC)))
	opts.Key("init_seed").SetValue(strconv.FormatUint(uint64(p.Options.InitSeed), 10))
	if p.Options.MaxTime > 0 {
		opts.Key("max_time").SetValue(strconv.FormatUint(uint64(p.Options.MaxTime), 10))
	}
	if p.Options.Workers > 0 {
		opts.Key("workers").SetValue(strconv.Itoa(p.Options.Workers))
	}
	if p.Options.DataDir != "" {
		opts.Key("data_dir").SetValue(p.Options.DataDir)
	}

	if len(p.Horizons) > 0 {
		sec := f.Section(HorizonsBlock)
		for _, l := range p.Horizons.Lengths() {
			h := p.Horizons[l]
			sec.Key(strconv.FormatUint(uint64(l), 10)).SetValue(fmt.Sprintf("%d, %d", h.MaxTime, h.Skip))
		}
	}

	if err := f.SaveTo(path); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func loadYAML(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := checkYAMLKeys(path, data); err != nil {
		return nil, err
	}
	p := &Params{Options: Options{DataDir: DefaultDataDir}}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}
	return p, nil
}

// requiredKeys must be present in every config file, whatever its format.
var requiredKeys = []struct{ section, key string }{
	{SimulationBlock, "substrate_lengths"},
	{SimulationBlock, "k_neighbours"},
	{SimulationBlock, "seeds"},
	{OptionsBlock, "periodic_bc"},
	{OptionsBlock, "init_seed"},
}

func checkYAMLKeys(path string, data []byte) error {
	var raw map[string]map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}
	for _, rk := range requiredKeys {
		sec, ok := raw[rk.section]
		if !ok {
			return fmt.Errorf("%w: missing section [%s]", ErrConfig, rk.section)
		}
		if _, ok := sec[rk.key]; !ok {
			return fmt.Errorf("%w: missing key %q in [%s]", ErrConfig, rk.key, rk.section)
		}
	}
	return nil
}

func loadINI(path string) (*Params, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	p := &Params{Options: Options{DataDir: DefaultDataDir}}

	if p.Simulation.SubstrateLengths, err = iniList(f, SimulationBlock, "substrate_lengths"); err != nil {
		return nil, err
	}
	if p.Simulation.KNeighbours, err = iniList(f, SimulationBlock, "k_neighbours"); err != nil {
		return nil, err
	}
	if p.Simulation.Seeds, err = iniList(f, SimulationBlock, "seeds"); err != nil {
		return nil, err
	}

	raw, err := iniValue(f, OptionsBlock, "periodic_bc")
	if err != nil {
		return nil, err
	}
	p.Options.PeriodicBC = parseFlag(OptionsBlock, "periodic_bc", raw)

	raw, err = iniValue(f, OptionsBlock, "init_seed")
	if err != nil {
		return nil, err
	}
	seed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: [%s] init_seed: %w", ErrConfig, OptionsBlock, err)
	}
	p.Options.InitSeed = uint32(seed)

	opts := f.Section(OptionsBlock)
	if opts.HasKey("max_time") {
		v, err := opts.Key("max_time").Uint()
		if err != nil {
			return nil, fmt.Errorf("%w: [%s] max_time: %w", ErrConfig, OptionsBlock, err)
		}
		p.Options.MaxTime = uint32(v)
	}
	if opts.HasKey("workers") {
		v, err := opts.Key("workers").Int()
		if err != nil {
			return nil, fmt.Errorf("%w: [%s] workers: %w", ErrConfig, OptionsBlock, err)
		}
		p.Options.Workers = v
	}
	if opts.HasKey("data_dir") {
		p.Options.DataDir = opts.Key("data_dir").String()
	}

	if sec, err := f.GetSection(HorizonsBlock); err == nil {
		p.Horizons = make(Horizons)
		for _, key := range sec.Keys() {
			l, err := strconv.ParseUint(key.Name(), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: [%s] %q is not a length", ErrConfig, HorizonsBlock, key.Name())
			}
			vals := ParseList(key.String())
			h := Horizon{}
			if len(vals) > 0 {
				h.MaxTime = vals[0]
			}
			if len(vals) > 1 {
				h.Skip = vals[1]
			}
			p.Horizons[uint32(l)] = h
		}
	}

	return p, nil
}

func iniValue(f *ini.File, section, key string) (string, error) {
	sec, err := f.GetSection(section)
	if err != nil {
		return "", fmt.Errorf("%w: missing section [%s]", ErrConfig, section)
	}
	k, err := sec.GetKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: missing key %q in [%s]", ErrConfig, key, section)
	}
	return k.String(), nil
}

func iniList(f *ini.File, section, key string) (List, error) {
	raw, err := iniValue(f, section, key)
	if err != nil {
		return nil, err
	}
	return ParseList(raw), nil
}

// MaxTimeFor returns the time horizon for a substrate length: the explicit
// max_time option when set, otherwise the entry in table.
func (p *Params) MaxTimeFor(table Horizons, length uint32) (uint32, error) {
	if p.Options.MaxTime > 0 {
		return p.Options.MaxTime, nil
	}
	h, ok := table.Lookup(length)
	if !ok || h.MaxTime == 0 {
		return 0, fmt.Errorf("%w: no time horizon for length %d (set options.max_time)", ErrConfig, length)
	}
	return h.MaxTime, nil
}

// HorizonTable returns the default table overlaid with any file overrides.
func (p *Params) HorizonTable() Horizons {
	return DefaultHorizons.Merge(p.Horizons)
}

// List is a list of unsigned integers written as "8, 16, 32" in INI files.
type List []uint32

// ParseList splits a comma separated list. Entries that do not parse become 0.
func ParseList(s string) List {
	parts := strings.Split(s, ",")
	out := make(List, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			v = 0
		}
		out = append(out, uint32(v))
	}
	return out
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, ", ")
}

// UnmarshalYAML accepts a sequence or a comma separated scalar.
func (l *List) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = ParseList(value.Value)
		return nil
	case yaml.SequenceNode:
		out := make(List, 0, len(value.Content))
		for _, n := range value.Content {
			v, err := strconv.ParseUint(strings.TrimSpace(n.Value), 10, 32)
			if err != nil {
				v = 0
			}
			out = append(out, uint32(v))
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: expected a list of integers", value.Line)
}

// Flag is a boolean accepting the usual spelled-out aliases.
type Flag bool

func (f *Flag) UnmarshalYAML(value *yaml.Node) error {
	*f = parseFlag(OptionsBlock, "periodic_bc", value.Value)
	return nil
}

// ParseFlag reports whether s is one of the accepted true aliases and
// whether it was recognised at all.
func ParseFlag(s string) (val, ok bool) {
	s = strings.TrimSpace(s)
	for _, a := range trueAliases {
		if s == a {
			return true, true
		}
	}
	for _, a := range falseAliases {
		if s == a {
			return false, true
		}
	}
	return false, false
}

func parseFlag(section, key, raw string) Flag {
	v, ok := ParseFlag(raw)
	if !ok {
		slog.Warn("malformed boolean, defaulting to false",
			"section", section,
			"key", key,
			"value", raw,
			"true", strings.Join(trueAliases, "/"),
			"false", strings.Join(falseAliases, "/"),
		)
	}
	return Flag(v)
}

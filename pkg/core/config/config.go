package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"valuation_synthesis/pkg/core/valuation"
)

// DefaultPath is where the YAML config is read from when VALUATION_CONFIG is unset.
const DefaultPath = "config/valuation.yaml"

// Config holds application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Store       StoreConfig       `yaml:"store"`
	Sensitivity SensitivityConfig `yaml:"sensitivity"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// StoreConfig selects the peer set backend: Postgres when DatabaseURL is set,
// JSON files under PeerSetDir otherwise.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url"`
	PeerSetDir  string `yaml:"peer_set_dir"`
}

// AxisSpec generates an axis around a base value: Points values either side, Step apart.
type AxisSpec struct {
	Step   float64 `json:"step" yaml:"step"`
	Points int     `json:"points" yaml:"points"`
}

// Around builds the axis centred on base.
func (a AxisSpec) Around(label string, base float64) valuation.Axis {
	return valuation.AxisAround(label, base, a.Step, a.Points)
}

type DCFSensitivityConfig struct {
	Mode   valuation.TerminalMode `json:"mode" yaml:"mode"`
	WACC   AxisSpec               `json:"wacc" yaml:"wacc"`
	Growth AxisSpec               `json:"growth" yaml:"growth"`
}

type LBOSensitivityConfig struct {
	TaxRate          float64  `json:"tax_rate" yaml:"tax_rate"`
	DebtRepaymentPct float64  `json:"debt_repayment_pct" yaml:"debt_repayment_pct"`
	Leverage         AxisSpec `json:"leverage" yaml:"leverage"`
	ExitMultiple     AxisSpec `json:"exit_multiple" yaml:"exit_multiple"`
}

type CompsSensitivityConfig struct {
	PE       AxisSpec `json:"pe" yaml:"pe"`
	EVEBITDA AxisSpec `json:"ev_ebitda" yaml:"ev_ebitda"`
}

type AccretionSensitivityConfig struct {
	Premiums      []float64 `json:"premiums" yaml:"premiums"`
	CostSynergies []float64 `json:"cost_synergies" yaml:"cost_synergies"`
}

// SensitivityConfig holds the default grid axes used when a request only gives base values.
type SensitivityConfig struct {
	DCF       DCFSensitivityConfig       `json:"dcf" yaml:"dcf"`
	LBO       LBOSensitivityConfig       `json:"lbo" yaml:"lbo"`
	Comps     CompsSensitivityConfig     `json:"comps" yaml:"comps"`
	Accretion AccretionSensitivityConfig `json:"accretion" yaml:"accretion"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 30 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Log:   LogConfig{Level: "info"},
		Store: StoreConfig{PeerSetDir: ".cache/peer_sets"},
		Sensitivity: SensitivityConfig{
			DCF: DCFSensitivityConfig{
				Mode:   valuation.TerminalRescale,
				WACC:   AxisSpec{Step: 0.01, Points: 2},
				Growth: AxisSpec{Step: 0.005, Points: 2},
			},
			LBO: LBOSensitivityConfig{
				TaxRate:          0.25,
				DebtRepaymentPct: 0.50,
				Leverage:         AxisSpec{Step: 1.0, Points: 2},
				ExitMultiple:     AxisSpec{Step: 1.0, Points: 2},
			},
			Comps: CompsSensitivityConfig{
				PE:       AxisSpec{Step: 1.0, Points: 2},
				EVEBITDA: AxisSpec{Step: 1.0, Points: 2},
			},
			Accretion: AccretionSensitivityConfig{
				Premiums:      []float64{0.15, 0.20, 0.25, 0.30, 0.35},
				CostSynergies: []float64{100, 125, 150, 175, 200},
			},
		},
	}
}

// Load reads .env (if present), then the YAML file at path (or VALUATION_CONFIG, or DefaultPath),
// then applies environment overrides. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = getEnv("VALUATION_CONFIG", DefaultPath)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvAsBool("LOG_PRETTY", c.Log.Pretty)
	c.Store.DatabaseURL = getEnv("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.PeerSetDir = getEnv("PEER_SET_DIR", c.Store.PeerSetDir)
	if mode := os.Getenv("DCF_SENSITIVITY_MODE"); mode != "" {
		c.Sensitivity.DCF.Mode = valuation.TerminalMode(strings.ToLower(mode))
	}
}

// Validate checks the values that would otherwise fail silently at request time.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	switch c.Sensitivity.DCF.Mode {
	case valuation.TerminalRescale, valuation.TerminalGordon:
	default:
		return fmt.Errorf("unknown dcf sensitivity mode %q", c.Sensitivity.DCF.Mode)
	}
	for name, spec := range map[string]AxisSpec{
		"dcf.wacc":          c.Sensitivity.DCF.WACC,
		"dcf.growth":        c.Sensitivity.DCF.Growth,
		"lbo.leverage":      c.Sensitivity.LBO.Leverage,
		"lbo.exit_multiple": c.Sensitivity.LBO.ExitMultiple,
		"comps.pe":          c.Sensitivity.Comps.PE,
		"comps.ev_ebitda":   c.Sensitivity.Comps.EVEBITDA,
	} {
		if !(spec.Step > 0) || math.IsInf(spec.Step, 0) || spec.Points < 0 {
			return fmt.Errorf("sensitivity axis %s needs a positive step and non-negative points", name)
		}
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Server.Port, ":")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

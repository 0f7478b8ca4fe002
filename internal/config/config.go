package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/pokenav/internal/nav"
)

// Map data backends.
const (
	BackendPack     = "pack"
	BackendPostgres = "postgres"
)

// DefaultMaxExpansions is the daemon's per-request search budget. The engine
// itself is unbounded unless told otherwise.
const DefaultMaxExpansions = 250_000

// Navd holds all configuration for the navigation daemon.
type Navd struct {
	LogLevel string `yaml:"log_level"`

	MapData MapData `yaml:"map_data"`
	Pathing Pathing `yaml:"pathing"`
	Server  Server  `yaml:"server"`
}

// MapData selects where static map data comes from.
type MapData struct {
	Backend  string         `yaml:"backend"` // "pack" or "postgres"
	PackPath string         `yaml:"pack_path"`
	Game     string         `yaml:"game"` // pack to load from the database
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Pathing holds search weights and limits.
type Pathing struct {
	StepCost             float64 `yaml:"step_cost"`
	EncounterPenalty     float64 `yaml:"encounter_penalty"`
	TurnPenalty          float64 `yaml:"turn_penalty"`
	ScriptedEventPenalty float64 `yaml:"scripted_event_penalty"`
	WarpPenalty          float64 `yaml:"warp_penalty"`
	SurfPenalty          float64 `yaml:"surf_penalty"`
	DisembarkPenalty     float64 `yaml:"disembark_penalty"`
	MaxExpansions        int     `yaml:"max_expansions"` // 0 = unlimited
}

// Server holds HTTP listener settings.
type Server struct {
	BindAddress  string        `yaml:"bind_address"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// StateStaleAfter marks the world-state feed stale in GET /api/state
	// when no snapshot arrived for this long.
	StateStaleAfter time.Duration `yaml:"state_stale_after"`
}

// Addr returns host:port for net/http.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// DefaultNavd returns Navd config with sensible defaults.
func DefaultNavd() Navd {
	costs := nav.DefaultCosts()
	return Navd{
		LogLevel: "info",
		MapData: MapData{
			Backend:  BackendPack,
			PackPath: "config/maps.yaml",
			Game:     "emerald",
			Database: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "pokenav",
				Password: "pokenav",
				DBName:   "pokenav",
				SSLMode:  "disable",
			},
		},
		Pathing: Pathing{
			StepCost:             costs.Step,
			EncounterPenalty:     costs.Encounter,
			TurnPenalty:          costs.Turn,
			ScriptedEventPenalty: costs.ScriptedEvent,
			WarpPenalty:          costs.IntermediateWarp,
			SurfPenalty:          costs.Surf,
			DisembarkPenalty:     costs.Disembark,
			MaxExpansions:        DefaultMaxExpansions,
		},
		Server: Server{
			BindAddress:     "127.0.0.1",
			Port:            8085,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			StateStaleAfter: 5 * time.Second,
		},
	}
}

// Costs converts the pathing section into engine weights.
func (p Pathing) Costs() nav.Costs {
	return nav.Costs{
		Step:             p.StepCost,
		Encounter:        p.EncounterPenalty,
		Turn:             p.TurnPenalty,
		ScriptedEvent:    p.ScriptedEventPenalty,
		IntermediateWarp: p.WarpPenalty,
		Surf:             p.SurfPenalty,
		Disembark:        p.DisembarkPenalty,
	}
}

// Validate rejects settings the daemon cannot start with.
func (c Navd) Validate() error {
	switch c.MapData.Backend {
	case BackendPack:
		if c.MapData.PackPath == "" {
			return fmt.Errorf("map_data.pack_path is required for backend %q", BackendPack)
		}
	case BackendPostgres:
		if c.MapData.Game == "" {
			return fmt.Errorf("map_data.game is required for backend %q", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown map_data.backend %q", c.MapData.Backend)
	}
	if c.Pathing.StepCost <= 0 {
		return fmt.Errorf("pathing.step_cost must be positive, got %v", c.Pathing.StepCost)
	}
	if c.Pathing.SurfPenalty < 0 || c.Pathing.DisembarkPenalty < 0 {
		return fmt.Errorf("pathing surf penalties must not be negative")
	}
	if c.Pathing.MaxExpansions < 0 {
		return fmt.Errorf("pathing.max_expansions must not be negative, got %d", c.Pathing.MaxExpansions)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// LoadNavd loads daemon config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadNavd(path string) (Navd, error) {
	cfg := DefaultNavd()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

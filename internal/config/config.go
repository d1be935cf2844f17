/*
Package config
File: config.go
Description:

	Server and gunner settings. Defaults are layered under an optional
	settings file and DOMEFALL_* environment overrides, then validated.
*/

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: server.addr is read from
// DOMEFALL_SERVER_ADDR.
const EnvPrefix = "DOMEFALL"

// Impact modes.
const (
	ImpactTrust     = "trust"
	ImpactRecompute = "recompute"
)

// WSConfig holds per-connection transport settings.
type WSConfig struct {
	SendBuffer   int
	PingInterval time.Duration
	PongWait     time.Duration
}

// Log holds logger settings shared by both binaries.
type Log struct {
	Level  string
	Pretty bool
}

// Server is the game server's process configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	Log             Log
	RulesPath       string
	ImpactMode      string
	WS              WSConfig
}

// Gunner is the bot runner's process configuration.
type Gunner struct {
	URL        string
	Bots       int
	Players    int
	NamePrefix string
	DomeType   string
	Seed       uint64 // 0 picks a time based seed
	RulesPath  string
	Log        Log
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("rules.path", "battlefield.yaml")

	v.SetDefault("server.addr", ":8081")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("impact.mode", ImpactTrust)
	v.SetDefault("ws.sendBuffer", 256)
	v.SetDefault("ws.pingInterval", "25s")
	v.SetDefault("ws.pongWait", "60s")

	v.SetDefault("gunner.url", "ws://localhost:8081/ws")
	v.SetDefault("gunner.bots", 2)
	v.SetDefault("gunner.players", 2)
	v.SetDefault("gunner.namePrefix", "Gunner")
	v.SetDefault("gunner.domeType", "boomer")
	v.SetDefault("gunner.seed", 0)
}

// newViper layers defaults, the optional config file, then the environment.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

// LoadServer reads the server settings. path may be empty.
func LoadServer(path string) (Server, error) {
	v, err := newViper(path)
	if err != nil {
		return Server{}, err
	}
	s := Server{
		Addr:            v.GetString("server.addr"),
		ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		Log:             Log{Level: v.GetString("log.level"), Pretty: v.GetBool("log.pretty")},
		RulesPath:       v.GetString("rules.path"),
		ImpactMode:      strings.ToLower(v.GetString("impact.mode")),
		WS: WSConfig{
			SendBuffer:   v.GetInt("ws.sendBuffer"),
			PingInterval: v.GetDuration("ws.pingInterval"),
			PongWait:     v.GetDuration("ws.pongWait"),
		},
	}
	switch s.ImpactMode {
	case ImpactTrust, ImpactRecompute:
	default:
		return Server{}, fmt.Errorf("impact.mode %q: want %q or %q", s.ImpactMode, ImpactTrust, ImpactRecompute)
	}
	if s.WS.SendBuffer <= 0 {
		return Server{}, fmt.Errorf("ws.sendBuffer must be positive, got %d", s.WS.SendBuffer)
	}
	if s.WS.PingInterval <= 0 || s.WS.PongWait <= s.WS.PingInterval {
		return Server{}, fmt.Errorf("ws.pongWait (%s) must exceed ws.pingInterval (%s)", s.WS.PongWait, s.WS.PingInterval)
	}
	return s, nil
}

// LoadGunner reads the bot runner settings. path may be empty.
func LoadGunner(path string) (Gunner, error) {
	v, err := newViper(path)
	if err != nil {
		return Gunner{}, err
	}
	g := Gunner{
		URL:        v.GetString("gunner.url"),
		Bots:       v.GetInt("gunner.bots"),
		Players:    v.GetInt("gunner.players"),
		NamePrefix: v.GetString("gunner.namePrefix"),
		DomeType:   v.GetString("gunner.domeType"),
		Seed:       v.GetUint64("gunner.seed"),
		RulesPath:  v.GetString("rules.path"),
		Log:        Log{Level: v.GetString("log.level"), Pretty: v.GetBool("log.pretty")},
	}
	if g.Bots < 1 {
		return Gunner{}, fmt.Errorf("gunner.bots must be at least 1, got %d", g.Bots)
	}
	if g.Players < 2 || g.Players > 6 {
		return Gunner{}, fmt.Errorf("gunner.players must be between 2 and 6, got %d", g.Players)
	}
	return g, nil
}

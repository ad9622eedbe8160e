// Package config centralizes all tunable game parameters.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// View resolution - the playfield in logical units.
// Actual rendering scales to fit terminal size.
const (
	ViewWidth  = 120 // Logical viewport width
	ViewHeight = 80  // Logical viewport height (in sub-pixels, so 40 terminal rows)
)

// Scoring and planet
const (
	InitialPlanetHealth = 100
	ScorePerKill        = 10
	DamagePerHit        = 10
)

// Rewards granted on level up
const (
	BoostFactor     = 1.5
	BoostDurationMs = 5000.0
	MultiShotEvery  = 3 // Levels per extra parallel shot
	MaxMultiShot    = 3
)

// Spawning
const (
	InitialAsteroidPool   = 16
	InitialProjectilePool = 32
	LargeAsteroidChance   = 0.25
	SmallAsteroidChance   = 0.35
	MaxAsteroidDrift      = 0.006 // units/ms
)

// CollisionGridCellSize is the broad-phase cell size.
// Must be >= the largest entity dimension (large asteroid: 9.0).
const CollisionGridCellSize = 10.0

// Engine
const (
	EventBufferSize = 64
	MaxFrameDeltaMs = 250.0 // Longer frames (suspended terminal, GC pause) are clamped
)

// Lobby
const (
	MaxUsernameLength = 16 // Maximum display length for player usernames
	LeaderboardSize   = 5
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Toasts
const (
	ToastDurationMs = 2000.0
	MaxToasts       = 4
	KillStreakToast = 5 // Kills within one streak before a toast is shown
)

// Client rendering
const (
	MaxTermWidth          = 120 // Max render columns; larger terminals get a border
	MaxTermHeight         = 40  // Max render rows
	HUDRows               = 1   // Rows reserved below the playfield
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)

// ErrInvalidSettings is returned by Validate and Load for unusable settings.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds the tunables that may be overridden from a TOML file.
// Durations are milliseconds, speeds units per millisecond.
type Settings struct {
	Screen     ScreenSettings     `toml:"screen"`
	Game       GameSettings       `toml:"game"`
	Ship       ShipSettings       `toml:"ship"`
	Difficulty DifficultySettings `toml:"difficulty"`
	Spawn      SpawnSettings      `toml:"spawn"`
}

// ScreenSettings is the playfield size.
type ScreenSettings struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// GameSettings covers score and planet health bookkeeping.
type GameSettings struct {
	PlanetHealth int `toml:"planet_health"`
	ScorePerKill int `toml:"score_per_kill"`
	DamagePerHit int `toml:"damage_per_hit"`
}

// ShipSettings covers the player ship and its level-up rewards.
type ShipSettings struct {
	Speed          float64 `toml:"speed"`
	FireRate       float64 `toml:"fire_rate"`
	BoostFactor    float64 `toml:"boost_factor"`
	BoostDuration  float64 `toml:"boost_duration"`
	MultiShotEvery int     `toml:"multishot_every"`
	MaxMultiShot   int     `toml:"max_multishot"`
}

// DifficultySettings covers level progression.
type DifficultySettings struct {
	Interval     float64 `toml:"interval"`
	Decay        float64 `toml:"decay"`
	MinSpawnRate float64 `toml:"min_spawn_rate"`
	SpawnRate    float64 `toml:"spawn_rate"`
}

// SpawnSettings covers asteroid generation and pool warm-up.
type SpawnSettings struct {
	AsteroidPool   int     `toml:"asteroid_pool"`
	ProjectilePool int     `toml:"projectile_pool"`
	LargeChance    float64 `toml:"large_chance"`
	SmallChance    float64 `toml:"small_chance"`
	MaxDrift       float64 `toml:"max_drift"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Screen: ScreenSettings{Width: ViewWidth, Height: ViewHeight},
		Game: GameSettings{
			PlanetHealth: InitialPlanetHealth,
			ScorePerKill: ScorePerKill,
			DamagePerHit: DamagePerHit,
		},
		Ship: ShipSettings{
			Speed:          0.06,
			FireRate:       250,
			BoostFactor:    BoostFactor,
			BoostDuration:  BoostDurationMs,
			MultiShotEvery: MultiShotEvery,
			MaxMultiShot:   MaxMultiShot,
		},
		Difficulty: DifficultySettings{
			Interval:     10000,
			Decay:        0.9,
			MinSpawnRate: 500,
			SpawnRate:    2000,
		},
		Spawn: SpawnSettings{
			AsteroidPool:   InitialAsteroidPool,
			ProjectilePool: InitialProjectilePool,
			LargeChance:    LargeAsteroidChance,
			SmallChance:    SmallAsteroidChance,
			MaxDrift:       MaxAsteroidDrift,
		},
	}
}

// Load reads settings from a TOML file on top of the defaults.
// An empty path or a missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	md, err := toml.DecodeFile(path, &s)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("load settings %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Default(), fmt.Errorf("load settings %s: %w: unknown keys %s", path, ErrInvalidSettings, strings.Join(keys, ", "))
	}

	if err := s.Validate(); err != nil {
		return Default(), fmt.Errorf("load settings %s: %w", path, err)
	}
	return s, nil
}

// Validate reports the first setting outside its allowed range.
func (s Settings) Validate() error {
	switch {
	case s.Screen.Width <= 0 || s.Screen.Height <= 0:
		return fmt.Errorf("%w: screen must be positive, got %vx%v", ErrInvalidSettings, s.Screen.Width, s.Screen.Height)
	case s.Game.PlanetHealth <= 0:
		return fmt.Errorf("%w: planet_health must be positive", ErrInvalidSettings)
	case s.Game.ScorePerKill <= 0:
		return fmt.Errorf("%w: score_per_kill must be positive", ErrInvalidSettings)
	case s.Game.DamagePerHit <= 0:
		return fmt.Errorf("%w: damage_per_hit must be positive", ErrInvalidSettings)
	case s.Ship.Speed <= 0:
		return fmt.Errorf("%w: ship speed must be positive", ErrInvalidSettings)
	case s.Ship.FireRate < 0:
		return fmt.Errorf("%w: fire_rate must not be negative", ErrInvalidSettings)
	case s.Ship.BoostFactor < 1 || s.Ship.BoostDuration < 0:
		return fmt.Errorf("%w: boost_factor must be >= 1 and boost_duration >= 0", ErrInvalidSettings)
	case s.Ship.MultiShotEvery < 1 || s.Ship.MaxMultiShot < 1:
		return fmt.Errorf("%w: multishot_every and max_multishot must be >= 1", ErrInvalidSettings)
	case s.Difficulty.Interval <= 0:
		return fmt.Errorf("%w: difficulty interval must be positive", ErrInvalidSettings)
	case s.Difficulty.Decay <= 0 || s.Difficulty.Decay > 1:
		return fmt.Errorf("%w: decay must be in (0, 1], got %v", ErrInvalidSettings, s.Difficulty.Decay)
	case s.Difficulty.MinSpawnRate <= 0 || s.Difficulty.SpawnRate < s.Difficulty.MinSpawnRate:
		return fmt.Errorf("%w: need 0 < min_spawn_rate <= spawn_rate", ErrInvalidSettings)
	case s.Spawn.AsteroidPool < 0 || s.Spawn.ProjectilePool < 0:
		return fmt.Errorf("%w: pool sizes must not be negative", ErrInvalidSettings)
	case s.Spawn.LargeChance < 0 || s.Spawn.SmallChance < 0 || s.Spawn.LargeChance+s.Spawn.SmallChance > 1:
		return fmt.Errorf("%w: size chances must be non-negative and sum to at most 1", ErrInvalidSettings)
	case s.Spawn.MaxDrift < 0:
		return fmt.Errorf("%w: max_drift must not be negative", ErrInvalidSettings)
	}
	return nil
}

package audio

import (
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/kingofdarck/idle-garden-sub001/internal/config"
	"github.com/kingofdarck/idle-garden-sub001/internal/loop"
)

// Config holds audio settings.
type Config struct {
	Enabled       bool
	MasterVolume  float64 // 0..1
	SampleRate    int
	EffectVolumes map[Sound]float64
}

// DefaultConfig returns audio settings with sound off.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		MasterVolume: 0.5,
		SampleRate:   44100,
		EffectVolumes: map[Sound]float64{
			SoundFire:      0.3,
			SoundExplosion: 0.7,
			SoundPlanetHit: 0.8,
			SoundLevelUp:   0.6,
			SoundGameOver:  0.8,
		},
	}
}

// LoadConfig reads GAME_AUDIO (bool) and GAME_VOLUME (0-100) on top of the defaults.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v, err := strconv.ParseBool(config.GetEnv("GAME_AUDIO", "false")); err == nil {
		cfg.Enabled = v
	}
	if v, err := strconv.Atoi(config.GetEnv("GAME_VOLUME", "")); err == nil {
		cfg.MasterVolume = min(max(float64(v)/100, 0), 1)
	}
	return cfg
}

// Volume returns the effective linear volume for s.
func (c Config) Volume(s Sound) float64 {
	v, ok := c.EffectVolumes[s]
	if !ok {
		v = 1
	}
	return v * c.MasterVolume
}

// SoundManager plays effects through the speaker. All methods are safe to call
// before Initialize or after Cleanup; they do nothing then.
type SoundManager struct {
	mu          sync.Mutex
	cfg         Config
	mixer       *beep.Mixer
	logger      *log.Logger
	initialized bool
}

// NewSoundManager creates a sound manager. logger may be nil.
func NewSoundManager(cfg Config, logger *log.Logger) *SoundManager {
	return &SoundManager{cfg: cfg, mixer: &beep.Mixer{}, logger: logger}
}

// Initialize opens the speaker. It is a no-op when audio is disabled or already open.
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized || !sm.cfg.Enabled {
		return nil
	}

	rate := beep.SampleRate(sm.cfg.SampleRate)
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Cleanup silences everything.
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.mixer.Clear()
	speaker.Unlock()
	sm.initialized = false
}

// Play starts an effect without waiting for it.
func (sm *SoundManager) Play(s Sound) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	st := Effect(s, sm.cfg)
	if st == nil {
		return
	}
	speaker.Lock()
	sm.mixer.Add(st)
	speaker.Unlock()
}

// SoundFor maps an engine event to its effect.
func SoundFor(t loop.EventType) (Sound, bool) {
	switch t {
	case loop.EventFire:
		return SoundFire, true
	case loop.EventKill:
		return SoundExplosion, true
	case loop.EventPlanetHit:
		return SoundPlanetHit, true
	case loop.EventLevelUp:
		return SoundLevelUp, true
	case loop.EventGameOver:
		return SoundGameOver, true
	default:
		return 0, false
	}
}

// Handle plays the effect for ev, if any.
func (sm *SoundManager) Handle(ev loop.Event) {
	if s, ok := SoundFor(ev.Type); ok {
		if sm.logger != nil {
			sm.logger.Debug("sound", "effect", s, "event", ev.Type)
		}
		sm.Play(s)
	}
}

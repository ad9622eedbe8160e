// Package audio synthesizes short sound effects for engine events.
package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Sound identifies one effect.
type Sound int

const (
	SoundFire Sound = iota
	SoundExplosion
	SoundPlanetHit
	SoundLevelUp
	SoundGameOver
)

// String returns the effect name.
func (s Sound) String() string {
	switch s {
	case SoundFire:
		return "fire"
	case SoundExplosion:
		return "explosion"
	case SoundPlanetHit:
		return "planet-hit"
	case SoundLevelUp:
		return "level-up"
	case SoundGameOver:
		return "game-over"
	default:
		return "unknown"
	}
}

// Effect durations
const (
	fireDuration      = 60 * time.Millisecond
	explosionDuration = 220 * time.Millisecond
	hitDuration       = 300 * time.Millisecond
	levelNoteDuration = 90 * time.Millisecond
	overNoteDuration  = 250 * time.Millisecond
	attack            = 5 * time.Millisecond
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// oscillator generates a fixed-length wave, optionally sweeping its frequency.
type oscillator struct {
	freq     float64
	sweep    float64 // Hz added per second
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

func newOscillator(freq, sweep float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		sweep:    sweep,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			val = -1
			if o.phase < 0.5 {
				val = 1
			}
		case WaveSaw:
			val = 2 * (o.phase - 0.5)
		case WaveNoise:
			val = rand.Float64()*2 - 1
		}
		samples[i][0] = val
		samples[i][1] = val

		freq := o.freq + o.sweep*float64(o.position)/float64(o.rate)
		o.phase += math.Max(freq, 0) / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope fades a stream in over attack and linearly out until the end.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	total    int
}

func newEnvelope(s beep.Streamer, duration, attack time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{streamer: s, attack: rate.N(attack), total: rate.N(duration)}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}
		vol := float64(e.total-e.position) / float64(e.total)
		if e.position < e.attack {
			vol *= float64(e.position) / float64(e.attack)
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume scales a stream linearly. Zero or negative volume is silent.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

func tone(freq, sweep float64, d time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return newEnvelope(newOscillator(freq, sweep, d, wave, rate), d, attack, rate)
}

// Effect builds a fresh streamer for s. Streamers are single-use.
func Effect(s Sound, cfg Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)

	var st beep.Streamer
	switch s {
	case SoundFire:
		// Short falling zap
		st = tone(1400, -12000, fireDuration, WaveSquare, rate)
	case SoundExplosion:
		st = beep.Mix(
			newVolume(tone(0, 0, explosionDuration, WaveNoise, rate), 0.8),
			newVolume(tone(90, -200, explosionDuration, WaveSine, rate), 0.6),
		)
	case SoundPlanetHit:
		st = tone(140, -250, hitDuration, WaveSaw, rate)
	case SoundLevelUp:
		// Rising arpeggio C6 E6 G6
		st = beep.Seq(
			tone(1046.5, 0, levelNoteDuration, WaveSine, rate),
			tone(1318.5, 0, levelNoteDuration, WaveSine, rate),
			tone(1568.0, 0, levelNoteDuration, WaveSine, rate),
		)
	case SoundGameOver:
		st = beep.Seq(
			tone(392, 0, overNoteDuration, WaveSquare, rate),
			tone(311.1, 0, overNoteDuration, WaveSquare, rate),
			tone(196, -60, overNoteDuration*2, WaveSquare, rate),
		)
	default:
		return nil
	}
	return newVolume(st, cfg.Volume(s))
}

// Duration returns the length of an effect.
func Duration(s Sound) time.Duration {
	switch s {
	case SoundFire:
		return fireDuration
	case SoundExplosion:
		return explosionDuration
	case SoundPlanetHit:
		return hitDuration
	case SoundLevelUp:
		return 3 * levelNoteDuration
	case SoundGameOver:
		return 4 * overNoteDuration
	default:
		return 0
	}
}

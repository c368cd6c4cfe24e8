// Package haptic ties the spike encoder, the waveform renderer and the
// channel player together into a feedback engine: surface interaction events
// go in, receptor spikes trigger cached per-material sounds on their
// channels.
package haptic

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cwbudde/algo-haptic/encoder"
	"github.com/cwbudde/algo-haptic/preset"
	"github.com/cwbudde/algo-haptic/render"
)

// Playback channel assignment, one channel per receptor.
const (
	ChannelSA       = 0
	ChannelRAMotion = 1
	ChannelRAClick  = 2
)

// speedWindow is the number of recent speed samples averaged for the
// motion-deviation input.
const speedWindow = 10

// Player is the playback surface the engine drives. audioout.Player
// implements it; tests substitute a recorder.
type Player interface {
	PlaySound(sound *render.SoundObject, channelID int, volume float64) bool
	StopChannel(channelID int)
}

// materialSounds is the cached sound pair for one material entry.
type materialSounds struct {
	motion *render.SoundObject
	click  *render.SoundObject
}

// Stats counts spikes and steps since engine creation.
type Stats struct {
	Steps          int
	SASpikes       int
	RAMotionSpikes int
	RAClickSpikes  int
}

// Engine is the top-level haptic feedback pipeline.
type Engine struct {
	mu sync.Mutex

	cfg      *preset.Config
	enc      *encoder.Encoder
	renderer *render.Renderer
	player   Player
	log      *slog.Logger

	saSound  *render.SoundObject
	sounds   map[string]materialSounds
	material string

	pressed  bool
	speed    float64
	avgSpeed *MovingAverage

	pulseTimer *time.Timer

	stats Stats
}

// New builds the engine from a resolved configuration and warms the
// per-material sound cache. The player may be nil for a silent engine
// (spike processing without playback).
func New(cfg *preset.Config, player Player, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if len(cfg.Materials) == 0 {
		return nil, fmt.Errorf("config has no materials")
	}
	if logger == nil {
		logger = slog.Default()
	}

	enc, err := encoder.New(cfg.SA, cfg.RAMotion, cfg.RAClick, cfg.DtMs, cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("spike encoder: %w", err)
	}
	renderer, err := render.NewRenderer(render.DefaultSampleRate)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		enc:      enc,
		renderer: renderer,
		player:   player,
		log:      logger,
		sounds:   make(map[string]materialSounds, len(cfg.Materials)),
		avgSpeed: NewMovingAverage(speedWindow),
	}

	e.saSound, err = renderer.CreateSoundObject(
		cfg.Sound.SAHz, cfg.Sound.SAMs, cfg.Sound.SAAmp, cfg.Sound.SAFadeOutMs)
	if err != nil {
		return nil, fmt.Errorf("sa sound: %w", err)
	}

	names := make([]string, 0, len(cfg.Materials))
	for name := range cfg.Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ms, err := e.buildMaterialSounds(cfg.Materials[name])
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		e.sounds[name] = ms
	}
	e.material = names[0]
	return e, nil
}

// buildMaterialSounds renders the motion and click sounds for one material,
// applying its frequency scale to the receptor base frequencies.
func (e *Engine) buildMaterialSounds(p render.Profile) (materialSounds, error) {
	snd := e.cfg.Sound
	motion, err := e.renderer.CreateMaterialSound(
		p.Material, snd.RAMotionHz*p.FrequencyScale, snd.RAMotionMs,
		snd.RAMotionAmp, snd.RAMotionFadeOutMs, p.Coefficient)
	if err != nil {
		return materialSounds{}, err
	}
	click, err := e.renderer.CreateMaterialSound(
		p.Material, snd.RAClickHz*p.FrequencyScale, snd.RAClickMs,
		snd.RAClickAmp, snd.RAClickFadeOutMs, p.Coefficient)
	if err != nil {
		return materialSounds{}, err
	}
	return materialSounds{motion: motion, click: click}, nil
}

// SetMaterial switches the active material. Unknown names are rejected.
func (e *Engine) SetMaterial(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sounds[name]; !ok {
		return fmt.Errorf("unknown material %q", name)
	}
	e.material = name
	return nil
}

// Material returns the active material name.
func (e *Engine) Material() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.material
}

// Roughness returns the active material's roughness.
func (e *Engine) Roughness() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Materials[e.material].Roughness
}

// Press starts a contact: the SA pressure input is set to the configured
// click magnitude and held until Release.
func (e *Engine) Press() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPulseLocked()
	e.pressed = true
	e.enc.UpdateSAInput(e.cfg.Input.ClickMag)
}

// PressPulse starts a contact and schedules its release input after the
// given duration. The contact state itself stays pressed; only the SA drive
// returns to zero, which also produces the release click transient. A
// second press or an explicit Release cancels a pending pulse.
func (e *Engine) PressPulse(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPulseLocked()
	e.pressed = true
	e.enc.UpdateSAInput(e.cfg.Input.ClickMag)
	e.pulseTimer = time.AfterFunc(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.pulseTimer = nil
		e.enc.UpdateSAInput(0)
	})
}

// Release ends the contact: SA drive and speed state are cleared.
func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPulseLocked()
	e.pressed = false
	e.enc.UpdateSAInput(0)
	e.speed = 0
	e.avgSpeed.Reset()
}

func (e *Engine) cancelPulseLocked() {
	if e.pulseTimer != nil {
		e.pulseTimer.Stop()
		e.pulseTimer = nil
	}
}

// UpdateSpeed feeds a surface speed sample. Samples are only tracked while
// pressed, matching the contact-gated motion input.
func (e *Engine) UpdateSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.pressed {
		return
	}
	e.speed = speed
	e.avgSpeed.Push(speed)
}

// Step advances the pipeline one tick and plays the sound of any receptor
// that fired.
func (e *Engine) Step() (encoder.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	roughness := e.cfg.Materials[e.material].Roughness
	res, err := e.enc.Step(e.speed, e.avgSpeed.Mean(), roughness, e.pressed)
	if err != nil {
		return res, err
	}
	e.stats.Steps++

	if res.SAFired {
		e.stats.SASpikes++
		e.playLocked(e.saSound, ChannelSA, e.cfg.Sound.SAVolume)
	}
	if res.RAMotionFired {
		e.stats.RAMotionSpikes++
		e.playLocked(e.sounds[e.material].motion, ChannelRAMotion, e.motionVolumeLocked())
	}
	if res.RAClickFired {
		e.stats.RAClickSpikes++
		e.playLocked(e.sounds[e.material].click, ChannelRAClick, e.cfg.Sound.RAClickVolume)
	}
	return res, nil
}

func (e *Engine) playLocked(sound *render.SoundObject, channel int, volume float64) {
	if e.player == nil {
		return
	}
	e.player.PlaySound(sound, channel, volume)
}

// motionVolumeLocked maps the current speed onto the configured volume scale
// range, linear between the min and max speed anchors.
func (e *Engine) motionVolumeLocked() float64 {
	snd := e.cfg.Sound
	span := snd.RAMotionVolMaxSpeed - snd.RAMotionVolMinSpeed
	t := (e.speed - snd.RAMotionVolMinSpeed) / span
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return snd.RAMotionMinVolScale + t*(snd.RAMotionMaxVolScale-snd.RAMotionMinVolScale)
}

// Pressed reports whether a contact is active.
func (e *Engine) Pressed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pressed
}

// AvgSpeed returns the tracked moving-average speed.
func (e *Engine) AvgSpeed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.avgSpeed.Mean()
}

// Stats returns the spike and step counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Encoder exposes the underlying spike encoder for inspection.
func (e *Engine) Encoder() *encoder.Encoder { return e.enc }

// Renderer exposes the underlying renderer.
func (e *Engine) Renderer() *render.Renderer { return e.renderer }

// Close cancels any pending press pulse.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPulseLocked()
}

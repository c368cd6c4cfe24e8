// Package audioout plays rendered sound objects on a small fixed set of
// independent channels. Playback is fire-and-forget: the underlying audio
// context mixes on its own thread, and the simulation loop never blocks on
// it. When the audio device cannot be opened the player degrades to a no-op
// so the neuron/encoder pipeline keeps running headless.
package audioout

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-haptic/render"
)

// DefaultChannelCount is the channel set size used by the haptic engine:
// one channel per receptor plus one spare for event sounds.
const DefaultChannelCount = 4

// deviceReadyTimeout bounds how long New waits for the audio device before
// degrading to a disabled player.
const deviceReadyTimeout = 5 * time.Second

// Player owns the audio device and the channel assignment state.
type Player struct {
	mu         sync.Mutex
	ctx        *oto.Context
	channels   []*oto.Player
	sampleRate int
	enabled    bool
	closed     bool
	log        *slog.Logger
}

// New acquires the audio device and prepares numChannels independent
// playback channels. A device initialization failure is non-fatal: the
// returned player is disabled, every PlaySound reports false, and the
// failure is logged once. An error is returned only for invalid arguments.
func New(sampleRate, numChannels int, logger *slog.Logger) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio sample rate must be > 0: %d", sampleRate)
	}
	if numChannels < 1 {
		return nil, fmt.Errorf("audio channel count must be >= 1: %d", numChannels)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Player{
		channels:   make([]*oto.Player, numChannels),
		sampleRate: sampleRate,
		log:        logger,
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		logger.Warn("audio device unavailable, player disabled", "error", err)
		return p, nil
	}
	select {
	case <-ready:
	case <-time.After(deviceReadyTimeout):
		logger.Warn("audio device not ready, player disabled")
		return p, nil
	}

	p.ctx = ctx
	p.enabled = true
	return p, nil
}

// Enabled reports whether the audio device was acquired.
func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled && !p.closed
}

// ChannelCount returns the fixed number of playback channels.
func (p *Player) ChannelCount() int {
	return len(p.channels)
}

// PlaySound starts playing the sound on the given channel at the given
// volume and returns whether playback was started. Out-of-range channel ids
// and volumes are clamped and logged rather than rejected. A sound already
// playing on the channel is replaced immediately; there is no queue.
func (p *Player) PlaySound(sound *render.SoundObject, channelID int, volume float64) bool {
	if sound == nil || len(sound.PCM16()) == 0 {
		p.log.Warn("refusing to play empty sound object", "channel", channelID)
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.closed {
		return false
	}

	if channelID < 0 || channelID >= len(p.channels) {
		clamped := channelID
		if clamped < 0 {
			clamped = 0
		} else {
			clamped = len(p.channels) - 1
		}
		p.log.Warn("channel id out of range, clamping", "channel", channelID, "clamped", clamped)
		channelID = clamped
	}
	if volume < 0 || volume > 1 {
		clamped := volume
		if clamped < 0 {
			clamped = 0
		} else {
			clamped = 1
		}
		p.log.Warn("volume out of range, clamping", "volume", volume, "clamped", clamped)
		volume = clamped
	}

	if prev := p.channels[channelID]; prev != nil {
		prev.Close()
	}

	player := p.ctx.NewPlayer(bytes.NewReader(sound.PCM16()))
	player.SetVolume(volume)
	player.Play()
	p.channels[channelID] = player
	return true
}

// StopChannel interrupts whatever is playing on the channel.
func (p *Player) StopChannel(channelID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if channelID < 0 || channelID >= len(p.channels) {
		return
	}
	if prev := p.channels[channelID]; prev != nil {
		prev.Close()
		p.channels[channelID] = nil
	}
}

// Quit releases the audio device. Safe to call multiple times and on a
// disabled player; intended for defer on every shutdown path.
func (p *Player) Quit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for i, pl := range p.channels {
		if pl != nil {
			pl.Close()
			p.channels[i] = nil
		}
	}
	if p.ctx != nil {
		p.ctx.Suspend()
	}
	p.enabled = false
}

package chime

import (
	"bytes"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/ottopos/internal/logger"
)

// Sounder plays an alert without blocking the caller.
type Sounder interface {
	Chime()
}

// Player plays chimes through the system audio device via oto.
type Player struct {
	ctx     *oto.Context
	log     *logger.Logger
	pcm     []byte
	mu      sync.Mutex
	playing bool
}

// NewPlayer initialises the audio device and pre-renders the new-order
// chime. Returns an error if no audio device is available.
func NewPlayer(log *logger.Logger, volume float64) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("chime player initialized (rate=%d, volume=%.2f)", SampleRate, volume)
	return &Player{ctx: ctx, log: log, pcm: Synthesize(NewOrder, volume)}, nil
}

// Chime starts the new-order chime in the background. A chime requested
// while one is already playing is dropped.
func (p *Player) Chime() {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = true
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			p.playing = false
			p.mu.Unlock()
		}()

		player := p.ctx.NewPlayer(bytes.NewReader(p.pcm))
		player.Play()
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		if err := player.Close(); err != nil {
			p.log.Warn("chime: closing player: %v", err)
		}
	}()
}

// Silent is a Sounder that does nothing, used when audio is disabled or
// unavailable.
type Silent struct{}

// Chime does nothing.
func (Silent) Chime() {}

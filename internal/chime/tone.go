// Package chime plays the short audible alert raised when new orders reach
// the kitchen board.
package chime

import (
	"encoding/binary"
	"math"
	"time"
)

// Output format of every chime.
const (
	SampleRate   = 24000
	ChannelCount = 1
)

// Note is one tone of a chime.
type Note struct {
	Freq     float64 // Hz; 0 is a rest
	Duration time.Duration
}

// NewOrder is the two-note chime used for new orders.
var NewOrder = []Note{
	{Freq: 880, Duration: 120 * time.Millisecond},
	{Freq: 0, Duration: 40 * time.Millisecond},
	{Freq: 1318.5, Duration: 180 * time.Millisecond},
}

// Synthesize renders notes as signed 16-bit little-endian mono PCM. Each
// note fades in and out over a few milliseconds to avoid clicks.
func Synthesize(notes []Note, volume float64) []byte {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	var total int
	for _, n := range notes {
		total += samples(n.Duration)
	}
	pcm := make([]byte, 0, total*2)

	ramp := samples(5 * time.Millisecond)
	for _, n := range notes {
		count := samples(n.Duration)
		for i := 0; i < count; i++ {
			var v float64
			if n.Freq > 0 {
				env := 1.0
				if i < ramp {
					env = float64(i) / float64(ramp)
				} else if count-i < ramp {
					env = float64(count-i) / float64(ramp)
				}
				v = math.Sin(2*math.Pi*n.Freq*float64(i)/SampleRate) * env * volume
			}
			pcm = binary.LittleEndian.AppendUint16(pcm, uint16(int16(v*math.MaxInt16)))
		}
	}
	return pcm
}

func samples(d time.Duration) int {
	return int(int64(d) * SampleRate / int64(time.Second))
}

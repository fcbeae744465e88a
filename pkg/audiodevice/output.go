// Package audiodevice plays interleaved PCM pulled from an avmedia.Fifo
// through an SDL2 audio device.
//
// go-sdl2's C-callback audio path requires a cgo-exported function per
// process, which does not compose with one AudioOutput per VideoTexture when
// several instances need to play concurrently. Instead this backend opens
// the device in queueing mode (nil Callback) and runs one low-latency pump
// goroutine per instance that feeds sdl.QueueAudio from the fifo: the pump
// goroutine must never block on anything but the device queue itself, which
// SDL's queue is sized to absorb.
package audiodevice

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"videocore/pkg/avmedia"
)

// AudioDeviceError reports failures opening or controlling the underlying
// SDL audio device.
type AudioDeviceError struct {
	Op  string
	Err error
}

func (e *AudioDeviceError) Error() string { return fmt.Sprintf("audiodevice: %s: %v", e.Op, e.Err) }
func (e *AudioDeviceError) Unwrap() error { return e.Err }

// pumpPeriod is how often the feeder goroutine tops up the device queue.
// Short enough that pause/volume changes are perceived as near-instant,
// long enough not to busy-spin.
const pumpPeriod = 10 * time.Millisecond

// silenceChunkBytes is how much silence the pump writes per tick while
// paused, sized generously against a single tick at common sample rates.
const silenceChunkBytes = 8192

// AudioOutput owns one real SDL audio device and the fifo its pump
// goroutine drains. paused and volume are atomics, one pair per instance,
// so the pump goroutine can read them without taking a lock.
type AudioOutput struct {
	deviceID sdl.AudioDeviceID
	fifo     *avmedia.Fifo
	format   avmedia.SampleFormat

	paused int32 // atomic bool
	volume int32 // atomic, fixed-point: percent*1000, default 100000

	underruns int64 // atomic count of empty fifo reads while unpaused

	stop chan struct{}
}

// Open configures and starts an SDL audio device matching format/sampleRate/
// channels, draining pcm from fifo via a feeder goroutine. The device
// starts unpaused at full volume.
func Open(fifo *avmedia.Fifo, format avmedia.SampleFormat, sampleRate, channels int) (*AudioOutput, error) {
	out := &AudioOutput{fifo: fifo, format: format, volume: 100000, stop: make(chan struct{})}

	spec := &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdlFormat(format),
		Channels: uint8(channels),
		Samples:  1024,
	}
	obtained := &sdl.AudioSpec{}

	deviceID, err := sdl.OpenAudioDevice("", false, spec, obtained, 0)
	if err != nil {
		return nil, &AudioDeviceError{Op: "OpenAudioDevice", Err: err}
	}
	out.deviceID = deviceID

	sdl.PauseAudioDevice(deviceID, false)
	go out.pump()
	return out, nil
}

func sdlFormat(f avmedia.SampleFormat) sdl.AudioFormat {
	switch f {
	case avmedia.SampleFormatU8:
		return sdl.AUDIO_U8
	case avmedia.SampleFormatS16:
		return sdl.AUDIO_S16LSB
	case avmedia.SampleFormatS32:
		return sdl.AUDIO_S32LSB
	case avmedia.SampleFormatF32:
		return sdl.AUDIO_F32LSB
	default:
		return sdl.AUDIO_S16LSB
	}
}

// silenceByte returns the byte the device format treats as silence: 127 for
// unsigned 8-bit PCM (the midpoint of the unsigned range), 0 for every
// signed/float format.
func silenceByte(f avmedia.SampleFormat) byte {
	if f == avmedia.SampleFormatU8 {
		return 127
	}
	return 0
}

// pump feeds the SDL audio queue from the fifo at a steady cadence,
// substituting format-correct silence while paused rather than starving
// the device (which would otherwise glitch instead of playing quiet).
func (o *AudioOutput) pump() {
	ticker := time.NewTicker(pumpPeriod)
	defer ticker.Stop()

	buf := make([]byte, silenceChunkBytes)

	for {
		select {
		case <-o.stop:
			return
		case <-ticker.C:
			if o.Paused() {
				// Keep at most about one chunk of silence queued so that
				// unpausing is not delayed behind a silence backlog.
				if sdl.GetQueuedAudioSize(o.deviceID) >= silenceChunkBytes {
					continue
				}
				fill := buf
				b := silenceByte(o.format)
				for i := range fill {
					fill[i] = b
				}
				sdl.QueueAudio(o.deviceID, fill)
				continue
			}

			n := o.fifo.Read(buf)
			if n == 0 {
				// The decoder hasn't kept the fifo fed; the device queue runs
				// dry this tick instead of glitching on stale data.
				atomic.AddInt64(&o.underruns, 1)
				continue
			}
			chunk := applyVolume(buf[:n], o.format, o.Volume())
			sdl.QueueAudio(o.deviceID, chunk)
		}
	}
}

// SetPaused toggles silence output without closing the device: while paused
// the audio path keeps running and emits a format-appropriate silence
// pattern instead of starving the device.
func (o *AudioOutput) SetPaused(paused bool) {
	v := int32(0)
	if paused {
		v = 1
	}
	atomic.StoreInt32(&o.paused, v)
}

func (o *AudioOutput) Paused() bool { return atomic.LoadInt32(&o.paused) != 0 }

// Underruns returns the cumulative count of pump ticks that found the fifo
// empty while unpaused, a proxy for audible audio glitches.
func (o *AudioOutput) Underruns() int64 { return atomic.LoadInt64(&o.underruns) }

// SetVolume clamps pct to [0, 100] and stores it as a fixed-point percent.
func (o *AudioOutput) SetVolume(pct float64) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	atomic.StoreInt32(&o.volume, int32(pct*1000))
}

func (o *AudioOutput) Volume() float64 {
	return float64(atomic.LoadInt32(&o.volume)) / 1000.0
}

// Close stops the feeder goroutine and releases the SDL audio device.
func (o *AudioOutput) Close() {
	close(o.stop)
	sdl.CloseAudioDevice(o.deviceID)
}

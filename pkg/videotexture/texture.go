// Package videotexture implements the VideoTexture asset: a GPU texture
// backed by a video file's frames, plus the video and (optional) audio
// decoders that feed it.
package videotexture

import (
	"log"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"videocore/pkg/audiodevice"
	"videocore/pkg/avmedia"
)

// audioFifoBytes sizes the ring buffer between the audio decoder and the
// audio output; large enough to absorb a few scheduling hiccups of the draw
// loop that feeds it without underrunning the device.
const audioFifoBytes = 64 * 1024

// VideoTexture owns one video file's decode state and its on-GPU texture.
// It holds one sdl.Texture for its whole lifetime and re-uploads into it on
// every decoded frame rather than reallocating; Generation increments on
// every successful upload so callers watching for "new frame" still observe
// a change.
type VideoTexture struct {
	path string

	video *avmedia.VideoDecoder
	audio *avmedia.AudioDecoder
	out   *audiodevice.AudioOutput

	texture    *sdl.Texture
	generation uint64
	rgba       []byte
	thumbnail  bool // rgba holds a decoded frame not yet uploaded to texture

	width, height int
	frameRate     float64

	// Mirrored display counters, computed once from the container's total
	// duration at open (matching VideoReaderOpen's hh:mm:ss.us split) and
	// exposed so the playback controller can copy them onto VideoData.
	hours, minutes, seconds int
	micros, numberOfFrames  int64

	isVideoLoaded  bool
	hasLoadedAudio bool
	volume         float64
}

// Open opens path's video stream (a failure here is fatal) and, best-effort,
// its audio stream (a missing or unusable audio stream is only logged, not
// fatal — plenty of source files are video-only). The GPU texture itself is
// allocated lazily by EnsureTexture, since SDL requires a live renderer that
// may not exist yet when the asset is first referenced.
func Open(path string) (*VideoTexture, error) {
	video, mf, err := avmedia.Open(path)
	if err != nil {
		return nil, err
	}

	vt := &VideoTexture{
		path:          path,
		video:         video,
		width:         mf.Width,
		height:        mf.Height,
		rgba:          make([]byte, mf.Width*mf.Height*4),
		isVideoLoaded: true,
		volume:        100,
		frameRate:     mf.FrameRate,
	}
	vt.setDurationCounters(mf.Duration, mf.NumberOfFrames)

	audio, err := avmedia.OpenAudio(path, audioFifoBytes)
	if err != nil {
		log.Printf("videotexture: %s: no usable audio stream: %v", path, err)
	} else {
		vt.audio = audio
	}

	// The asset's thumbnail is decoded once at open time, independent of
	// play state: the caller sees a representative frame the moment the
	// asset resolves rather than a blank texture until PLAY is pressed.
	if ok, _, err := vt.video.ReadFrame(true); err != nil {
		log.Printf("videotexture: %s: thumbnail decode failed: %v", path, err)
	} else if ok {
		if err := vt.video.Scale(vt.rgba); err != nil {
			log.Printf("videotexture: %s: thumbnail scale failed: %v", path, err)
		} else {
			vt.thumbnail = true
		}
		if err := vt.video.Seek(0); err != nil {
			log.Printf("videotexture: %s: thumbnail rewind failed: %v", path, err)
		}
	}

	return vt, nil
}

// setDurationCounters splits d into the hh:mm:ss.us mirrored display
// counters, matching VideoReaderOpen's one-time split of the container's
// total duration (not a per-frame playhead readout).
func (vt *VideoTexture) setDurationCounters(d time.Duration, numberOfFrames int64) {
	secs := int64(d / time.Second)
	vt.micros = int64(d%time.Second) / int64(time.Microsecond)
	vt.minutes = int(secs / 60)
	vt.seconds = int(secs % 60)
	vt.hours = vt.minutes / 60
	vt.minutes %= 60
	vt.numberOfFrames = numberOfFrames
}

// FrameRate returns the container's frame rate, used to translate a frame
// index into a seek timestamp in seconds.
func (vt *VideoTexture) FrameRate() float64 { return vt.frameRate }

// Counters returns the mirrored hh:mm:ss.us + total-frame-count display
// counters for this asset's duration.
func (vt *VideoTexture) Counters() (hours, minutes, seconds int, micros, numberOfFrames int64) {
	return vt.hours, vt.minutes, vt.seconds, vt.micros, vt.numberOfFrames
}

func (vt *VideoTexture) Dimensions() (int, int) { return vt.width, vt.height }
func (vt *VideoTexture) HasLoadedAudio() bool   { return vt.hasLoadedAudio }
func (vt *VideoTexture) Generation() uint64     { return vt.generation }

// EnsureTexture lazily allocates the persistent streaming SDL texture
// against renderer. Safe to call every frame; it is a no-op once allocated.
func (vt *VideoTexture) EnsureTexture(renderer *sdl.Renderer) error {
	if vt.texture != nil {
		return nil
	}
	tex, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGBA32, sdl.TEXTUREACCESS_STREAMING, int32(vt.width), int32(vt.height))
	if err != nil {
		return &avmedia.OpenError{Kind: avmedia.OpenErrCodec, Path: vt.path, Err: err}
	}
	vt.texture = tex

	if vt.thumbnail {
		if err := vt.upload(); err != nil {
			return err
		}
	}
	return nil
}

// ReadAndUploadVideoFrame decodes the next video frame and uploads it into
// the persistent texture, returning the new generation counter value so
// callers can tell a fresh frame landed without comparing texture ids.
func (vt *VideoTexture) ReadAndUploadVideoFrame(paused bool) (ok bool, generation uint64, err error) {
	ok, _, err = vt.video.ReadFrame(paused)
	if err != nil || !ok {
		return ok, vt.generation, err
	}
	if err := vt.video.Scale(vt.rgba); err != nil {
		return false, vt.generation, err
	}
	if err := vt.upload(); err != nil {
		return false, vt.generation, err
	}
	vt.generation++
	return true, vt.generation, nil
}

func (vt *VideoTexture) upload() error {
	if vt.texture == nil {
		return nil // caller has not called EnsureTexture yet; nothing to upload into
	}
	return vt.texture.Update(nil, vt.rgba, vt.width*4)
}

// Texture returns the persistent SDL texture for binding/drawing.
func (vt *VideoTexture) Texture() *sdl.Texture { return vt.texture }

// ReadAndPlayAudio decodes and enqueues one audio frame's worth of PCM,
// lazily starting the audio output device on the first successful decode.
func (vt *VideoTexture) ReadAndPlayAudio() error {
	if vt.audio == nil {
		return nil
	}
	ok, first, err := vt.audio.ReadFrame()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if first && vt.out == nil {
		out, err := audiodevice.Open(vt.audio.Fifo(), vt.audio.Format(), vt.audio.SampleRate(), vt.audio.Channels())
		if err != nil {
			log.Printf("videotexture: %s: audio device open failed: %v", vt.path, err)
			return nil
		}
		out.SetVolume(vt.volume)
		vt.out = out
		vt.hasLoadedAudio = true
	}
	return nil
}

// PauseAudio toggles silence output on the audio device without closing it.
func (vt *VideoTexture) PauseAudio(paused bool) {
	if vt.out != nil {
		vt.out.SetPaused(paused)
	}
}

// SetVolumeFactor clamps and applies pct (0..100) to the live audio device,
// and remembers it for the device's next (re)open.
func (vt *VideoTexture) SetVolumeFactor(pct float64) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	vt.volume = pct
	if vt.out != nil {
		vt.out.SetVolume(pct)
	}
}

func (vt *VideoTexture) VolumeFactor() float64 { return vt.volume }

// AudioUnderruns returns the cumulative count of audio device ticks that
// found the fifo empty while unpaused, or 0 if no audio device is open.
func (vt *VideoTexture) AudioUnderruns() int64 {
	if vt.out == nil {
		return 0
	}
	return vt.out.Underruns()
}

// PacketDurationSeconds converts the video decoder's most recently observed
// packet duration into seconds, used by the playback controller to turn a
// scrub frame index into a seek target.
func (vt *VideoTexture) PacketDurationSeconds() float64 {
	tb := vt.video.TimeBase()
	if tb.Den == 0 {
		return 0
	}
	return float64(vt.video.PacketDuration()) * tb.Float()
}

// SeekVideo seeks the video decoder to targetSeconds.
func (vt *VideoTexture) SeekVideo(targetSeconds float64) error {
	return vt.video.Seek(targetSeconds)
}

// SeekAudio seeks the audio decoder to targetSeconds, rescaled through the
// video stream's time base.
func (vt *VideoTexture) SeekAudio(targetSeconds float64) error {
	if vt.audio == nil {
		return nil
	}
	return vt.audio.Seek(targetSeconds, vt.video.TimeBase())
}

// CloseAudio tears down the audio device and decoder. Idempotent.
func (vt *VideoTexture) CloseAudio() {
	if vt.out != nil {
		vt.out.Close()
		vt.out = nil
	}
	if vt.audio != nil {
		vt.audio.Close()
		vt.audio = nil
	}
	vt.hasLoadedAudio = false
}

// CloseVideo tears down the video decoder and its GPU texture. Idempotent.
func (vt *VideoTexture) CloseVideo() {
	if vt.texture != nil {
		vt.texture.Destroy()
		vt.texture = nil
	}
	if vt.video != nil {
		vt.video.Close()
		vt.video = nil
	}
	vt.isVideoLoaded = false
}

// Close tears down everything this asset owns.
func (vt *VideoTexture) Close() {
	vt.CloseAudio()
	vt.CloseVideo()
}

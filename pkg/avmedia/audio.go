package avmedia

// SampleFormat names the handful of interleaved PCM layouts the audio
// output actually has to support.
type SampleFormat int

const (
	SampleFormatU8 SampleFormat = iota
	SampleFormatS16
	SampleFormatS32
	SampleFormatF32
)

func (f SampleFormat) BytesPerSample() int {
	switch f {
	case SampleFormatU8:
		return 1
	case SampleFormatS16:
		return 2
	default:
		return 4
	}
}

// AudioDecoder owns a second, fully independent AVFormatContext opened on
// the same path as the video stream: audio stays decoupled from video so
// seeking one never touches the other's handles directly — they're only
// synchronised by the playback controller.
type AudioDecoder struct {
	fmtCtx      formatHandle
	codec       codecHandle
	frame       frameHandle
	packet      packetHandle
	swr         swrHandle
	streamIndex int
	timeBase    Rational
	sampleRate  int
	channels    int
	format      SampleFormat

	fifo               *Fifo
	lastPacketDuration int64
	initialized        bool
	closed             bool
}

// OpenAudio opens path's audio stream and prepares (but does not start) a
// resampler targeting one of the four supported device formats. fifoBytes
// sizes the backing ring buffer; it should comfortably hold a few device
// callback periods' worth of audio.
func OpenAudio(path string, fifoBytes int) (*AudioDecoder, error) {
	fmtCtx, err := cOpenInput(path)
	if err != nil {
		return nil, &OpenError{Kind: OpenErrFile, Path: path, Err: err}
	}

	desc, codec, err := cFindBestStream(fmtCtx, false)
	if err != nil {
		cCloseInput(fmtCtx)
		return nil, &OpenError{Kind: OpenErrNoAudioStream, Path: path, Err: err}
	}

	swr, format, err := cOpenAudioResampler(desc)
	if err != nil {
		cFreeCodec(codec)
		cCloseInput(fmtCtx)
		return nil, &OpenError{Kind: OpenErrCodec, Path: path, Err: err}
	}

	return &AudioDecoder{
		fmtCtx:      fmtCtx,
		codec:       codec,
		swr:         swr,
		frame:       cAllocFrame(),
		packet:      cAllocPacket(),
		streamIndex: desc.index,
		timeBase:    Rational{desc.timeBaseNum, desc.timeBaseDen},
		sampleRate:  desc.sampleRate,
		channels:    desc.channels,
		format:      format,
		fifo:        NewFifo(fifoBytes),
	}, nil
}

func (d *AudioDecoder) Format() SampleFormat  { return d.format }
func (d *AudioDecoder) SampleRate() int       { return d.sampleRate }
func (d *AudioDecoder) Channels() int         { return d.channels }
func (d *AudioDecoder) Fifo() *Fifo           { return d.fifo }
func (d *AudioDecoder) TimeBase() Rational    { return d.timeBase }
func (d *AudioDecoder) PacketDuration() int64 { return d.lastPacketDuration }

// ReadFrame decodes, resamples, and appends one audio frame's worth of PCM
// into the fifo. It returns false at end of stream. firstFrame reports
// whether this call produced the first frame ReadFrame has returned to a
// caller since open (the frame Seek decodes internally does not count), so
// the caller knows when it's safe to open the audio output device.
func (d *AudioDecoder) ReadFrame() (ok bool, firstFrame bool, err error) {
	for {
		more, rerr := cReadPacket(d.fmtCtx, d.packet)
		if rerr != nil {
			return false, false, &DecodeError{Kind: DecodeErrReadPacket, Err: rerr}
		}
		if !more {
			return false, false, nil
		}

		if cPacketStreamIndex(d.packet) != d.streamIndex {
			cUnrefPacket(d.packet)
			continue
		}

		d.lastPacketDuration = cPacketDuration(d.packet)

		if serr := cSendPacket(d.codec, d.packet); serr != nil {
			cUnrefPacket(d.packet)
			return false, false, &DecodeError{Kind: DecodeErrSendPacket, Err: serr}
		}
		cUnrefPacket(d.packet)

		result, rerr := cReceiveFrame(d.codec, d.frame)
		if rerr != nil {
			return false, false, &DecodeError{Kind: DecodeErrReceiveFrame, Err: rerr}
		}
		if result == decodeNeedMore {
			continue
		}

		pcm, _, serr := cResample(d.swr, d.frame, d.format.BytesPerSample(), d.channels)
		if serr != nil {
			return false, false, &DecodeError{Kind: DecodeErrResample, Err: serr}
		}
		d.fifo.Write(pcm)

		first := !d.initialized
		d.initialized = true
		return true, first, nil
	}
}

// Seek rewinds the audio stream to targetSeconds, expressed against the
// video decoder's time base and rescaled into this stream's own time base —
// the two streams almost never share identical time bases.
func (d *AudioDecoder) Seek(targetSeconds float64, videoTimeBase Rational) error {
	videoTS := int64(targetSeconds * float64(videoTimeBase.Den) / float64(maxInt(videoTimeBase.Num, 1)))
	audioTS := cRescaleTS(videoTS, videoTimeBase.Num, videoTimeBase.Den, d.timeBase.Num, d.timeBase.Den)

	if err := cSeekBackward(d.fmtCtx, d.streamIndex, audioTS); err != nil {
		return &SeekError{Kind: SeekErrAVSeek, TargetPTS: audioTS, Err: err}
	}
	cFlushBuffers(d.codec)
	d.fifo.Reset()

	initialized := d.initialized
	_, _, err := d.ReadFrame()
	d.initialized = initialized
	if err != nil {
		return &SeekError{Kind: SeekErrDiscardFrame, TargetPTS: audioTS, Err: err}
	}
	return nil
}

// Close releases every cgo handle exactly once.
func (d *AudioDecoder) Close() {
	if d.closed {
		return
	}
	d.closed = true
	cFreeResampler(d.swr)
	cFreePacket(d.packet)
	cFreeFrame(d.frame)
	cFreeCodec(d.codec)
	cCloseInput(d.fmtCtx)
}

package avmedia

// VideoDecoder owns one video AVFormatContext/AVCodecContext pair and
// decodes frames from it on demand. It tracks the duration of the last
// frame it decoded, which the playback controller uses to translate a scrub
// frame index into a seek timestamp.
type VideoDecoder struct {
	fmtCtx      formatHandle
	codec       codecHandle
	frame       frameHandle
	packet      packetHandle
	streamIndex int
	timeBase    Rational
	width       int
	height      int

	lastPacketDuration int64
	closed             bool
}

// ReadFrame decodes the next video frame, skipping packets that belong to
// other streams in the same container. ok is false at end of stream; the
// decoded image is left in d's internal frame and can be read via Scale.
// When paused is true, the caller still wants a decoded frame but does not
// want the playback PTS advanced, so it can hold on a frame while scrubbing.
func (d *VideoDecoder) ReadFrame(paused bool) (ok bool, pts int64, err error) {
	for {
		more, rerr := cReadPacket(d.fmtCtx, d.packet)
		if rerr != nil {
			return false, 0, &DecodeError{Kind: DecodeErrReadPacket, Err: rerr}
		}
		if !more {
			return false, 0, nil
		}

		if cPacketStreamIndex(d.packet) != d.streamIndex {
			cUnrefPacket(d.packet)
			continue
		}

		if serr := cSendPacket(d.codec, d.packet); serr != nil {
			cUnrefPacket(d.packet)
			return false, 0, &DecodeError{Kind: DecodeErrSendPacket, Err: serr}
		}
		cUnrefPacket(d.packet)

		result, rerr := cReceiveFrame(d.codec, d.frame)
		if rerr != nil {
			return false, 0, &DecodeError{Kind: DecodeErrReceiveFrame, Err: rerr}
		}
		if result == decodeNeedMore {
			continue
		}

		d.lastPacketDuration = cFrameDuration(d.frame)

		framePTS := cFramePTS(d.frame)
		if !paused {
			pts = framePTS
		}
		return true, pts, nil
	}
}

// PacketDuration returns the duration (in stream time-base units) of the
// most recently decoded frame, used to translate a scrub frame index into a
// seek timestamp.
func (d *VideoDecoder) PacketDuration() int64 { return d.lastPacketDuration }

func (d *VideoDecoder) TimeBase() Rational     { return d.timeBase }
func (d *VideoDecoder) Dimensions() (int, int) { return d.width, d.height }

// Seek rewinds to the nearest keyframe at or before targetSeconds and
// discards one decoded frame: a backward seek lands on a keyframe that may
// be well before the requested timestamp, and the discard primes the
// decoder so the next real ReadFrame returns a clean frame instead of stale
// decoder state.
func (d *VideoDecoder) Seek(targetSeconds float64) error {
	ts := int64(targetSeconds * float64(d.timeBase.Den) / float64(maxInt(d.timeBase.Num, 1)))

	if err := cSeekBackward(d.fmtCtx, d.streamIndex, ts); err != nil {
		return &SeekError{Kind: SeekErrAVSeek, TargetPTS: ts, Err: err}
	}
	cFlushBuffers(d.codec)

	if _, _, err := d.ReadFrame(true); err != nil {
		return &SeekError{Kind: SeekErrDiscardFrame, TargetPTS: ts, Err: err}
	}
	return nil
}

// Scale converts the most recently decoded frame into a packed RGBA8 buffer
// of the decoder's own dimensions.
func (d *VideoDecoder) Scale(dst []byte) error {
	return ScaleFrame(d.codec, d.frame, dst, d.width, d.height)
}

// Close releases every cgo handle the decoder owns, exactly once each.
func (d *VideoDecoder) Close() {
	if d.closed {
		return
	}
	d.closed = true
	cFreePacket(d.packet)
	cFreeFrame(d.frame)
	cFreeCodec(d.codec)
	cCloseInput(d.fmtCtx)
}

package avmedia

import "time"

// Rational mirrors an AVRational without leaking the C type to callers.
type Rational struct {
	Num, Den int
}

func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// MediaFile is the demuxer-level description of an opened video stream:
// everything a caller needs to know about the container before decoding a
// single frame. Audio-side fields live on AudioDecoder, which owns a fully
// separate AVFormatContext.
type MediaFile struct {
	Path           string
	Width, Height  int
	Duration       time.Duration
	FrameRate      float64
	NumberOfFrames int64
	VideoTimeBase  Rational
	VideoStreamIdx int
}

// Open opens path's video stream, reads container metadata, and returns a
// ready-to-decode VideoDecoder alongside the MediaFile description.
func Open(path string) (*VideoDecoder, MediaFile, error) {
	fmtCtx, err := cOpenInput(path)
	if err != nil {
		return nil, MediaFile{}, &OpenError{Kind: OpenErrFile, Path: path, Err: err}
	}

	desc, codec, err := cFindBestStream(fmtCtx, true)
	if err != nil {
		cCloseInput(fmtCtx)
		return nil, MediaFile{}, &OpenError{Kind: OpenErrNoVideoStream, Path: path, Err: err}
	}

	// Duration in AV_TIME_BASE units, padded by 5ms to absorb container
	// rounding before it is turned into hh:mm:ss.us components by the caller.
	durationUs := int64(fmtCtx.ptr.duration) + 5000
	duration := time.Duration(durationUs) * time.Microsecond

	frameRate := desc.frameRate
	if frameRate <= 0 && desc.avgRateDen > 0 {
		frameRate = float64(desc.avgRateNum) / float64(desc.avgRateDen)
	}

	numberOfFrames := int64(frameRate * duration.Seconds())

	mf := MediaFile{
		Path:           path,
		Width:          desc.width,
		Height:         desc.height,
		Duration:       duration,
		FrameRate:      frameRate,
		NumberOfFrames: numberOfFrames,
		VideoTimeBase:  Rational{desc.timeBaseNum, desc.timeBaseDen},
		VideoStreamIdx: desc.index,
	}

	vd := &VideoDecoder{
		fmtCtx:      fmtCtx,
		codec:       codec,
		streamIndex: desc.index,
		timeBase:    mf.VideoTimeBase,
		frame:       cAllocFrame(),
		packet:      cAllocPacket(),
		width:       desc.width,
		height:      desc.height,
	}

	return vd, mf, nil
}

package avmedia

// ScaleFrame folds deprecated JPEG-range pixel formats onto their
// standard-range siblings before handing the frame to sws_scale, and always
// produces a packed RGB0 (effectively RGBA8, alpha forced opaque) buffer at
// the decoder's native dimensions. A fresh SwsContext is built and torn down
// per call rather than cached across frames.
func ScaleFrame(codec codecHandle, frame frameHandle, dst []byte, width, height int) error {
	if len(dst) < width*height*4 {
		return &DecodeError{Kind: DecodeErrScale, Err: errBufferTooSmall}
	}
	if err := cScaleToRGBA(codec, frame, dst, width, height); err != nil {
		return &DecodeError{Kind: DecodeErrScale, Err: err}
	}
	return nil
}

var errBufferTooSmall = scaleBufferError("destination buffer smaller than width*height*4")

type scaleBufferError string

func (e scaleBufferError) Error() string { return string(e) }

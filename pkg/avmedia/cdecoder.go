package avmedia

/*
#cgo pkg-config: libavformat libavcodec libavutil libswscale libswresample

#include <stdlib.h>
#include <string.h>
#include <libavformat/avformat.h>
#include <libavcodec/avcodec.h>
#include <libavutil/avutil.h>
#include <libavutil/error.h>
#include <libavutil/imgutils.h>
#include <libswscale/swscale.h>
#include <libswresample/swresample.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// formatHandle, codecHandle, frameHandle and packetHandle are opaque cgo
// pointers. They are never exposed outside this file; every other file in
// the package operates on them only through the functions below, which keeps
// the rest of the package free of `import "C"` and lets it read like plain
// Go.

type formatHandle struct{ ptr *C.AVFormatContext }
type codecHandle struct{ ptr *C.AVCodecContext }
type frameHandle struct{ ptr *C.AVFrame }
type packetHandle struct{ ptr *C.AVPacket }
type swsHandle struct{ ptr *C.struct_SwsContext }
type swrHandle struct{ ptr *C.struct_SwrContext }

func avErrorString(code C.int) string {
	buf := make([]C.char, C.AV_ERROR_MAX_STRING_SIZE)
	C.av_strerror(code, &buf[0], C.AV_ERROR_MAX_STRING_SIZE)
	return C.GoString(&buf[0])
}

// cOpenInput opens path and reads stream info into a fresh format context.
func cOpenInput(path string) (formatHandle, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var fmtCtx *C.AVFormatContext
	if ret := C.avformat_open_input(&fmtCtx, cpath, nil, nil); ret < 0 {
		return formatHandle{}, fmt.Errorf("avformat_open_input: %s", avErrorString(ret))
	}
	if ret := C.avformat_find_stream_info(fmtCtx, nil); ret < 0 {
		C.avformat_close_input(&fmtCtx)
		return formatHandle{}, fmt.Errorf("avformat_find_stream_info: %s", avErrorString(ret))
	}
	return formatHandle{fmtCtx}, nil
}

func cCloseInput(h formatHandle) {
	if h.ptr != nil {
		ptr := h.ptr
		C.avformat_close_input(&ptr)
	}
}

// streamDescriptor is the subset of an AVStream the Go layer needs; it is a
// plain Go value so callers never touch a C pointer.
type streamDescriptor struct {
	index       int
	width       int
	height      int
	timeBaseNum int
	timeBaseDen int
	frameRate   float64
	avgRateNum  int
	avgRateDen  int
	sampleRate  int
	channels    int
	sampleFmt   C.enum_AVSampleFormat
	channelLay  C.uint64_t
	codecID     C.enum_AVCodecID
}

// cFindBestStream scans the streams of fmtCtx for the first one matching
// mediaType whose codec has a registered decoder, opens a codec context for
// it, and returns both the stream's descriptor and the opened codec context.
func cFindBestStream(fmtCtx formatHandle, video bool) (streamDescriptor, codecHandle, error) {
	mediaType := C.AVMEDIA_TYPE_AUDIO
	if video {
		mediaType = C.AVMEDIA_TYPE_VIDEO
	}

	nbStreams := int(fmtCtx.ptr.nb_streams)
	streams := (*[1 << 16]*C.AVStream)(unsafe.Pointer(fmtCtx.ptr.streams))[:nbStreams:nbStreams]

	for i, st := range streams {
		params := st.codecpar
		if C.enum_AVMediaType(params.codec_type) != mediaType {
			continue
		}
		decoder := C.avcodec_find_decoder(params.codec_id)
		if decoder == nil {
			continue
		}

		codecCtx := C.avcodec_alloc_context3(decoder)
		if codecCtx == nil {
			return streamDescriptor{}, codecHandle{}, fmt.Errorf("avcodec_alloc_context3 failed")
		}
		if ret := C.avcodec_parameters_to_context(codecCtx, params); ret < 0 {
			C.avcodec_free_context(&codecCtx)
			return streamDescriptor{}, codecHandle{}, fmt.Errorf("avcodec_parameters_to_context: %s", avErrorString(ret))
		}
		if ret := C.avcodec_open2(codecCtx, decoder, nil); ret < 0 {
			C.avcodec_free_context(&codecCtx)
			return streamDescriptor{}, codecHandle{}, fmt.Errorf("avcodec_open2: %s", avErrorString(ret))
		}

		desc := streamDescriptor{
			index:       i,
			width:       int(params.width),
			height:      int(params.height),
			timeBaseNum: int(st.time_base.num),
			timeBaseDen: int(st.time_base.den),
			frameRate:   float64(st.r_frame_rate.num) / float64(maxInt(int(st.r_frame_rate.den), 1)),
			avgRateNum:  int(st.avg_frame_rate.num),
			avgRateDen:  int(st.avg_frame_rate.den),
			sampleRate:  int(params.sample_rate),
			channels:    int(params.ch_layout.nb_channels),
			sampleFmt:   C.enum_AVSampleFormat(params.format),
			channelLay:  *(*C.uint64_t)(unsafe.Pointer(&params.ch_layout.u)),
			codecID:     params.codec_id,
		}
		return desc, codecHandle{codecCtx}, nil
	}

	return streamDescriptor{}, codecHandle{}, fmt.Errorf("no matching stream found")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func cFreeCodec(h codecHandle) {
	if h.ptr != nil {
		ptr := h.ptr
		C.avcodec_free_context(&ptr)
	}
}

func cAllocFrame() frameHandle {
	return frameHandle{C.av_frame_alloc()}
}

func cFreeFrame(h frameHandle) {
	if h.ptr != nil {
		ptr := h.ptr
		C.av_frame_free(&ptr)
	}
}

func cAllocPacket() packetHandle {
	return packetHandle{C.av_packet_alloc()}
}

func cFreePacket(h packetHandle) {
	if h.ptr != nil {
		ptr := h.ptr
		C.av_packet_free(&ptr)
	}
}

func cUnrefPacket(h packetHandle) {
	C.av_packet_unref(h.ptr)
}

// cReadPacket reads the next packet from fmtCtx into pkt. It returns
// io.EOF-like signal via the ok bool: ok is false at end of stream.
func cReadPacket(fmtCtx formatHandle, pkt packetHandle) (ok bool, err error) {
	ret := C.av_read_frame(fmtCtx.ptr, pkt.ptr)
	if ret == C.int(C.AVERROR_EOF) {
		return false, nil
	}
	if ret < 0 {
		return false, fmt.Errorf("av_read_frame: %s", avErrorString(ret))
	}
	return true, nil
}

func cPacketStreamIndex(pkt packetHandle) int { return int(pkt.ptr.stream_index) }
func cPacketDuration(pkt packetHandle) int64   { return int64(pkt.ptr.duration) }
func cFrameDuration(fr frameHandle) int64      { return int64(fr.ptr.duration) }
func cFramePTS(fr frameHandle) int64           { return int64(fr.ptr.pts) }
func cSetFramePTS(fr frameHandle, pts int64)   { fr.ptr.pts = C.int64_t(pts) }

func cRescalePacketTS(pkt packetHandle, numIn, denIn, numOut, denOut int) {
	in := C.AVRational{num: C.int(numIn), den: C.int(denIn)}
	out := C.AVRational{num: C.int(numOut), den: C.int(denOut)}
	C.av_packet_rescale_ts(pkt.ptr, in, out)
}

func cRescaleTS(ts int64, numIn, denIn, numOut, denOut int) int64 {
	in := C.AVRational{num: C.int(numIn), den: C.int(denIn)}
	out := C.AVRational{num: C.int(numOut), den: C.int(denOut)}
	return int64(C.av_rescale_q(C.int64_t(ts), in, out))
}

// decodeResult enumerates the outcome of a send/receive decode attempt.
type decodeResult int

const (
	decodeGotFrame decodeResult = iota
	decodeNeedMore
	decodeError
)

func cSendPacket(codec codecHandle, pkt packetHandle) error {
	ret := C.avcodec_send_packet(codec.ptr, pkt.ptr)
	if ret < 0 && ret != C.int(C.AVERROR_EOF) {
		return fmt.Errorf("avcodec_send_packet: %s", avErrorString(ret))
	}
	return nil
}

func cReceiveFrame(codec codecHandle, fr frameHandle) (decodeResult, error) {
	ret := C.avcodec_receive_frame(codec.ptr, fr.ptr)
	switch {
	case ret == C.int(C.AVERROR(C.EAGAIN)) || ret == C.int(C.AVERROR_EOF):
		return decodeNeedMore, nil
	case ret < 0:
		return decodeError, fmt.Errorf("avcodec_receive_frame: %s", avErrorString(ret))
	default:
		return decodeGotFrame, nil
	}
}

func cFlushBuffers(codec codecHandle) {
	C.avcodec_flush_buffers(codec.ptr)
}

func cSeekBackward(fmtCtx formatHandle, streamIndex int, ts int64) error {
	ret := C.av_seek_frame(fmtCtx.ptr, C.int(streamIndex), C.int64_t(ts), C.AVSEEK_FLAG_BACKWARD)
	if ret < 0 {
		return fmt.Errorf("av_seek_frame: %s", avErrorString(ret))
	}
	return nil
}

// correctDeprecatedPixelFormat folds the deprecated JPEG-range YUV variants
// onto their standard-range siblings.
func correctDeprecatedPixelFormat(fmt C.enum_AVPixelFormat) C.enum_AVPixelFormat {
	switch fmt {
	case C.AV_PIX_FMT_YUVJ420P:
		return C.AV_PIX_FMT_YUV420P
	case C.AV_PIX_FMT_YUVJ422P:
		return C.AV_PIX_FMT_YUV422P
	case C.AV_PIX_FMT_YUVJ444P:
		return C.AV_PIX_FMT_YUV444P
	case C.AV_PIX_FMT_YUVJ440P:
		return C.AV_PIX_FMT_YUV440P
	default:
		return fmt
	}
}

// cScaleToRGBA converts fr (in codec's pixel format) into dst, a packed
// RGBA8 buffer of stride w*4. A scaler context is created and freed for this
// single call.
func cScaleToRGBA(codec codecHandle, fr frameHandle, dst []byte, w, h int) error {
	srcFmt := correctDeprecatedPixelFormat(C.enum_AVPixelFormat(codec.ptr.pix_fmt))

	sws := C.sws_getContext(
		C.int(w), C.int(h), srcFmt,
		C.int(w), C.int(h), C.AV_PIX_FMT_RGB0,
		C.SWS_BILINEAR, nil, nil, nil,
	)
	if sws == nil {
		return fmt.Errorf("sws_getContext failed")
	}
	defer C.sws_freeContext(sws)

	dstData := [4]*C.uint8_t{(*C.uint8_t)(unsafe.Pointer(&dst[0])), nil, nil, nil}
	dstLinesize := [4]C.int{C.int(w * 4), 0, 0, 0}

	C.sws_scale(
		sws,
		(**C.uint8_t)(unsafe.Pointer(&fr.ptr.data[0])),
		(*C.int)(unsafe.Pointer(&fr.ptr.linesize[0])),
		0, C.int(h),
		(**C.uint8_t)(unsafe.Pointer(&dstData[0])),
		(*C.int)(unsafe.Pointer(&dstLinesize[0])),
	)
	return nil
}

// cNewResampler builds a format-only resampler: layout and rate are kept,
// only the sample format changes.
func cNewResampler(channelLayout C.uint64_t, srcFmt, dstFmt C.enum_AVSampleFormat, sampleRate int) (swrHandle, error) {
	swr := C.swr_alloc_set_opts(
		nil,
		C.int64_t(channelLayout), dstFmt, C.int(sampleRate),
		C.int64_t(channelLayout), srcFmt, C.int(sampleRate),
		0, nil,
	)
	if swr == nil {
		return swrHandle{}, fmt.Errorf("swr_alloc_set_opts failed")
	}
	if ret := C.swr_init(swr); ret < 0 {
		C.swr_free(&swr)
		return swrHandle{}, fmt.Errorf("swr_init: %s", avErrorString(ret))
	}
	return swrHandle{swr}, nil
}

func cFreeResampler(h swrHandle) {
	if h.ptr != nil {
		ptr := h.ptr
		C.swr_free(&ptr)
	}
}

// cResample converts fr into device format, returning interleaved PCM bytes
// and the sample count. bytesPerSample is the destination format's sample
// width (SampleFormat.BytesPerSample on the Go side).
func cResample(swr swrHandle, fr frameHandle, bytesPerSample, channels int) ([]byte, int, error) {
	nbSamples := int(fr.ptr.nb_samples)
	if nbSamples == 0 {
		return nil, 0, nil
	}

	bufLen := nbSamples * channels * bytesPerSample
	out := make([]byte, bufLen)

	outPtr := (*C.uint8_t)(unsafe.Pointer(&out[0]))
	ret := C.swr_convert(
		swr.ptr,
		&outPtr, C.int(nbSamples),
		(**C.uint8_t)(unsafe.Pointer(&fr.ptr.data[0])), C.int(nbSamples),
	)
	if ret < 0 {
		return nil, 0, fmt.Errorf("swr_convert: %s", avErrorString(ret))
	}
	return out[:ret*C.int(channels)*C.int(bytesPerSample)], int(ret), nil
}

// deviceFormatFor maps a codec's native sample format onto one of the four
// device formats the audio output actually supports: planar formats fold
// onto their packed counterpart since swr interleaves planar input for us.
func deviceFormatFor(srcFmt C.enum_AVSampleFormat) (SampleFormat, C.enum_AVSampleFormat) {
	switch srcFmt {
	case C.AV_SAMPLE_FMT_U8, C.AV_SAMPLE_FMT_U8P:
		return SampleFormatU8, C.AV_SAMPLE_FMT_U8
	case C.AV_SAMPLE_FMT_S16, C.AV_SAMPLE_FMT_S16P:
		return SampleFormatS16, C.AV_SAMPLE_FMT_S16
	case C.AV_SAMPLE_FMT_S32, C.AV_SAMPLE_FMT_S32P:
		return SampleFormatS32, C.AV_SAMPLE_FMT_S32
	case C.AV_SAMPLE_FMT_FLT, C.AV_SAMPLE_FMT_FLTP:
		return SampleFormatF32, C.AV_SAMPLE_FMT_FLT
	default:
		return SampleFormatS16, C.AV_SAMPLE_FMT_S16
	}
}

// cOpenAudioResampler builds a resampler that changes only sample format,
// keeping the codec's native channel layout and sample rate, and reports
// which SampleFormat that corresponds to.
func cOpenAudioResampler(desc streamDescriptor) (swrHandle, SampleFormat, error) {
	goFmt, dstFmt := deviceFormatFor(desc.sampleFmt)
	swr, err := cNewResampler(desc.channelLay, desc.sampleFmt, dstFmt, desc.sampleRate)
	if err != nil {
		return swrHandle{}, goFmt, err
	}
	return swr, goFmt, nil
}

// Package wav reads and writes RIFF/WAVE headers around 16-bit PCM.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// headerSize is the size of a canonical 44-byte RIFF/WAVE header.
const headerSize = 44

const formatPCM = 1

var (
	// ErrNotWAV indicates the data does not start with a RIFF/WAVE header.
	ErrNotWAV = errors.New("not a RIFF/WAVE stream")
	// ErrUnsupported indicates an encoding other than 16-bit PCM.
	ErrUnsupported = errors.New("unsupported WAV encoding")
)

// Audio describes a decoded RIFF/WAVE stream. Data aliases the input buffer.
type Audio struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	AudioFormat   int
	Data          []byte
}

// Duration returns the playback length of the PCM payload.
func (w *Audio) Duration() time.Duration {
	frame := w.Channels * w.BitsPerSample / 8
	if frame == 0 || w.SampleRate == 0 {
		return 0
	}
	frames := len(w.Data) / frame
	return time.Duration(frames) * time.Second / time.Duration(w.SampleRate)
}

// Is reports whether data starts with a RIFF/WAVE magic.
func Is(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

// Parse walks the RIFF chunks and returns the fmt parameters and the data
// chunk. A data chunk whose declared size overruns the buffer is truncated to
// what is present, which is how streamed WAVs with a placeholder size arrive.
func Parse(data []byte) (*Audio, error) {
	if !Is(data) {
		return nil, ErrNotWAV
	}

	w := &Audio{}
	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrNotWAV)
			}
			w.AudioFormat = int(binary.LittleEndian.Uint16(data[body : body+2]))
			w.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			w.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			w.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrNotWAV)
			}
			end := body + size
			if size < 0 || end > len(data) {
				end = len(data)
			}
			w.Data = data[body:end]
			return w, nil
		}

		// Chunks are padded to an even length.
		next := body + size + size%2
		if next <= pos {
			break
		}
		pos = next
	}

	if !haveFmt {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrNotWAV)
	}
	return nil, fmt.Errorf("%w: missing data chunk", ErrNotWAV)
}

// Validate checks that the stream is 16-bit signed PCM with one or two
// channels.
func (w *Audio) Validate() error {
	if w.AudioFormat != formatPCM {
		return fmt.Errorf("%w: format tag %d", ErrUnsupported, w.AudioFormat)
	}
	if w.BitsPerSample != 16 {
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupported, w.BitsPerSample)
	}
	if w.Channels != 1 && w.Channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrUnsupported, w.Channels)
	}
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupported, w.SampleRate)
	}
	return nil
}

// Encode wraps 16-bit little-endian PCM in a canonical WAV header.
func Encode(pcm []byte, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	buf := make([]byte, headerSize+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], formatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[headerSize:], pcm)
	return buf
}

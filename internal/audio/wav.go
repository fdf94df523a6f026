package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrUnsupportedFormat is returned for WAV files that are not 16-bit PCM.
var ErrUnsupportedFormat = errors.New("unsupported wav format")

// maxTrackBytes caps how much of a WAV stream is read into memory.
const maxTrackBytes = 64 << 20

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// Track is a decoded 16-bit PCM track.
type Track struct {
	SampleRate int
	Channels   int
	Samples    []int16 // interleaved
}

// Frames returns the number of sample frames in the track.
func (t *Track) Frames() int {
	if t.Channels == 0 {
		return 0
	}
	return len(t.Samples) / t.Channels
}

// LoadWAV reads a 16-bit PCM WAV file.
func LoadWAV(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track: %w", err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

// DecodeWAV decodes a RIFF/WAVE stream holding 16-bit PCM samples.
// Streamed files that declare 0xFFFFFFFF chunk sizes are accepted and
// read up to the bytes actually present.
func DecodeWAV(r io.Reader) (*Track, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxTrackBytes))
	if err != nil {
		return nil, fmt.Errorf("read wav: %w", err)
	}
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrUnsupportedFormat)
	}
	clampChunkSizes(raw)

	d := wav.NewDecoder(bytes.NewReader(raw))
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}
	// the extensible sub-format is assumed to be PCM
	if (d.WavAudioFormat != formatPCM && d.WavAudioFormat != formatExtensible) || d.BitDepth != 16 {
		return nil, fmt.Errorf("%w: format %d, %d bits", ErrUnsupportedFormat, d.WavAudioFormat, d.BitDepth)
	}
	if d.NumChans == 0 || d.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, d.NumChans, d.SampleRate)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm data: %w", err)
	}
	return trackFromBuffer(buf), nil
}

func trackFromBuffer(buf *goaudio.IntBuffer) *Track {
	channels := buf.Format.NumChannels
	n := len(buf.Data) - len(buf.Data)%channels
	track := &Track{
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
		Samples:    make([]int16, n),
	}
	for i, v := range buf.Data[:n] {
		track.Samples[i] = int16(v)
	}
	return track
}

// clampChunkSizes rewrites the RIFF and chunk sizes in place so none
// extends past the end of raw.
func clampChunkSizes(raw []byte) {
	if size := binary.LittleEndian.Uint32(raw[4:8]); int64(size) > int64(len(raw)-8) {
		binary.LittleEndian.PutUint32(raw[4:8], uint32(len(raw)-8))
	}
	for off := 12; off+8 <= len(raw); {
		size := int64(binary.LittleEndian.Uint32(raw[off+4 : off+8]))
		remaining := int64(len(raw) - off - 8)
		if size > remaining {
			size = remaining - remaining%2
			binary.LittleEndian.PutUint32(raw[off+4:off+8], uint32(size))
			return
		}
		off += 8 + int(size+size%2)
	}
}

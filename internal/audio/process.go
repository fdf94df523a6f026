package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// chunkDuration is how much audio is written to the player per step.
const chunkDuration = 20 * time.Millisecond

// ErrPlayerNotFound is returned when no player binary can be resolved.
var ErrPlayerNotFound = errors.New("audio player binary not found")

// ResolvePlayerPath returns the path to the player binary.
// If customPath is set it must be executable; otherwise ffplay is looked up in PATH.
// Returns an empty string if no player is found.
func ResolvePlayerPath(customPath string) string {
	name := "ffplay"
	if customPath != "" {
		name = customPath
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}

// ProcessPlayer streams a looping track as raw PCM into an external player process.
// Volume is applied to the samples as they are written, so changes take effect
// within one chunk.
type ProcessPlayer struct {
	track      *Track
	playerPath string

	mu     sync.Mutex
	volume float64
	pos    int // next sample frame to write
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stop   chan struct{}
	done   chan struct{}
}

// NewProcessPlayer creates a player for track using the player binary at playerPath.
func NewProcessPlayer(track *Track, playerPath string) (*ProcessPlayer, error) {
	if playerPath == "" {
		return nil, ErrPlayerNotFound
	}
	if track == nil || track.Frames() == 0 {
		return nil, errors.New("empty audio track")
	}
	return &ProcessPlayer{
		track:      track,
		playerPath: playerPath,
		volume:     DefaultVolume,
	}, nil
}

// Play starts the player process and the writer loop. It is a no-op while playing.
func (p *ProcessPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return nil
	}

	cmd := exec.Command(p.playerPath,
		"-f", "s16le",
		"-ar", strconv.Itoa(p.track.SampleRate),
		"-ac", strconv.Itoa(p.track.Channels),
		"-nodisp", "-autoexit", "-loglevel", "quiet",
		"-")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	go p.writeLoop(stdin, p.stop, p.done)
	return nil
}

// writeLoop paces chunks of scaled PCM into the player at real-time rate.
func (p *ProcessPlayer) writeLoop(w io.Writer, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	framesPerChunk := max(1, p.track.SampleRate*int(chunkDuration/time.Millisecond)/1000)
	buf := make([]byte, 0, framesPerChunk*p.track.Channels*2)

	ticker := time.NewTicker(chunkDuration)
	defer ticker.Stop()

	for {
		p.mu.Lock()
		buf = p.fillChunk(buf[:0], framesPerChunk)
		p.mu.Unlock()

		if _, err := w.Write(buf); err != nil {
			// The player exited on its own; only tear down if it is still ours
			p.mu.Lock()
			if p.stop == stop {
				p.stopLocked()
			}
			p.mu.Unlock()
			return
		}

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// fillChunk appends the next frames to buf, scaled by the volume and wrapping at
// the end of the track. Must hold mu.
func (p *ProcessPlayer) fillChunk(buf []byte, frames int) []byte {
	ch := p.track.Channels
	total := p.track.Frames()
	for range frames {
		for c := range ch {
			s := float64(p.track.Samples[p.pos*ch+c]) * p.volume
			s = math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(s)))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(s)))
		}
		p.pos++
		if p.pos >= total {
			p.pos = 0
		}
	}
	return buf
}

// Pause stops the player process, keeping the playback position.
func (p *ProcessPlayer) Pause() error {
	p.mu.Lock()
	done := p.done
	err := p.stopLocked()
	p.mu.Unlock()

	if done != nil {
		<-done
	}
	return err
}

// stopLocked signals the writer and kills the player process (must hold mu).
func (p *ProcessPlayer) stopLocked() error {
	if p.cmd == nil {
		return nil
	}

	close(p.stop)
	p.stdin.Close()

	var err error
	if p.cmd.Process != nil {
		if killErr := p.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = fmt.Errorf("stop player: %w", killErr)
		}
	}
	p.cmd.Wait()

	p.cmd = nil
	p.stdin = nil
	p.stop = nil
	return err
}

// Rewind moves playback to the start of the track.
func (p *ProcessPlayer) Rewind() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = 0
}

// SetVolume sets the volume applied to subsequent chunks.
func (p *ProcessPlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clampVolume(v)
}

// Volume returns the current volume.
func (p *ProcessPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Paused reports whether the player process is stopped.
func (p *ProcessPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd == nil
}

// Close stops playback.
func (p *ProcessPlayer) Close() error {
	return p.Pause()
}

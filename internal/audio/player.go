// Package audio plays the looping background track while the stance is detected.
package audio

// DefaultVolume is the nominal playback volume.
const DefaultVolume = 0.7

// Player is a looping audio track with volume control.
type Player interface {
	// Play starts or resumes playback from the current position.
	Play() error
	// Pause stops playback, keeping the current position.
	Pause() error
	// Rewind moves the playback position to the start of the track.
	Rewind()
	// SetVolume sets the volume, clamped to [0, 1].
	SetVolume(v float64)
	Volume() float64
	Paused() bool
	Close() error
}

func clampVolume(v float64) float64 {
	return max(0, min(v, 1))
}

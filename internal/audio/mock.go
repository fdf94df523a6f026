package audio

import "sync"

// MockPlayer is a test implementation of Player that records calls.
type MockPlayer struct {
	mu      sync.Mutex
	paused  bool
	volume  float64
	rewinds int
	plays   int
	playErr error
}

// NewMockPlayer creates a paused mock player at the default volume.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{paused: true, volume: DefaultVolume}
}

// SetPlayError makes subsequent Play calls fail with err.
func (m *MockPlayer) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

func (m *MockPlayer) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.plays++
	m.paused = false
	return nil
}

func (m *MockPlayer) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
	return nil
}

func (m *MockPlayer) Rewind() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewinds++
}

func (m *MockPlayer) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clampVolume(v)
}

func (m *MockPlayer) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MockPlayer) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *MockPlayer) Close() error {
	return m.Pause()
}

// Plays returns how many times playback was started.
func (m *MockPlayer) Plays() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plays
}

// Rewinds returns how many times the track was rewound.
func (m *MockPlayer) Rewinds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rewinds
}

package device

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ssargent/drivelog/pkg/codec"
)

// MockSensor produces random readings: whole-degree angles in [0, 360] and
// accelerations in [-5, 5) g.
type MockSensor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockSensor returns a MockSensor seeded with seed
func NewMockSensor(seed int64) *MockSensor {
	return &MockSensor{rng: rand.New(rand.NewSource(seed))}
}

func (s *MockSensor) Read() (codec.AccelerometerReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return codec.AccelerometerReading{
		Inclination: s.degree(),
		Pitch:       s.degree(),
		Roll:        s.degree(),
		X:           s.g(),
		Y:           s.g(),
		Z:           s.g(),
	}, nil
}

func (s *MockSensor) degree() float64 { return float64(s.rng.Intn(361)) }
func (s *MockSensor) g() float64      { return s.rng.Float64()*10 - 5 }

// FileCamera cycles through the .jpg/.jpeg files in a directory
type FileCamera struct {
	mu     sync.Mutex
	frames [][]byte
	next   int
}

// NewFileCamera loads every JPEG in dir
func NewFileCamera(dir string) (*FileCamera, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".jpg" || ext == ".jpeg") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no JPEG files in %s", dir)
	}
	sort.Strings(names)

	cam := &FileCamera{}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		cam.frames = append(cam.frames, data)
	}
	return cam, nil
}

func (c *FileCamera) Capture() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame := c.frames[c.next]
	c.next = (c.next + 1) % len(c.frames)
	return frame, nil
}

// StaticCamera returns the same frame every time
type StaticCamera []byte

func (c StaticCamera) Capture() ([]byte, error) {
	if len(c) == 0 {
		return nil, errors.New("static camera has no frame")
	}
	return c, nil
}

// BlankFrame is a minimal JPEG (SOI + EOI markers) for simulation
var BlankFrame = StaticCamera{0xFF, 0xD8, 0xFF, 0xD9}

// LogMotors logs speed changes instead of driving hardware
type LogMotors struct {
	Logger zerolog.Logger
}

func (m LogMotors) SetSpeeds(left, right int) error {
	m.Logger.Info().Int("left", left).Int("right", right).Msg("motors")
	return nil
}

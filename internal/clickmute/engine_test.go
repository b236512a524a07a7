// ABOUTME: Tests for the engine lifecycle
// ABOUTME: Uses in-memory device, monitor and speaker fakes
package clickmute

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/clickmute-go/internal/clicky"
	"github.com/Resonate-Protocol/clickmute-go/internal/config"
	"github.com/Resonate-Protocol/clickmute-go/internal/wavdump"
	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
	"github.com/Resonate-Protocol/clickmute-go/pkg/audio/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journal records lifecycle calls across fakes
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	j.calls = append(j.calls, s)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

type fakeDevice struct {
	j        *journal
	rate     int
	openErr  error
	startErr error
	started  chan device.Processor
}

func (d *fakeDevice) Open(cfg device.Config) (audio.Format, error) {
	d.j.add("device.open")
	if d.openErr != nil {
		return audio.Format{}, d.openErr
	}
	return audio.Format{SampleRate: d.rate, Channels: device.Channels}, nil
}

func (d *fakeDevice) Start(p device.Processor) error {
	d.j.add("device.start")
	if d.startErr != nil {
		return d.startErr
	}
	d.started <- p
	return nil
}

func (d *fakeDevice) Close() error {
	d.j.add("device.close")
	return nil
}

type fakeMonitor struct {
	j *journal
}

func (m *fakeMonitor) WhenClicked() (clicky.Timestamp, bool) { return clicky.Timestamp{}, false }

func (m *fakeMonitor) Start(ctx context.Context) { m.j.add("monitor.start") }

func (m *fakeMonitor) Stop() error {
	m.j.add("monitor.stop")
	return nil
}

func (m *fakeMonitor) StaleEvents() uint64 { return 0 }

func (m *fakeMonitor) Devices() []clicky.DeviceInfo {
	return []clicky.DeviceInfo{{Path: "/dev/input/event3", Name: "Keyboard"}}
}

type fakeSpeaker struct {
	j      *journal
	mu     sync.Mutex
	frames int
}

func (s *fakeSpeaker) Open(format audio.Format) error {
	s.j.add("speaker.open")
	return nil
}

func (s *fakeSpeaker) Feed(outA, outB []float32) {
	s.mu.Lock()
	s.frames += len(outA)
	s.mu.Unlock()
}

func (s *fakeSpeaker) Close() error {
	s.j.add("speaker.close")
	return nil
}

func newFakes() (*journal, *fakeDevice, *fakeMonitor) {
	j := &journal{}
	return j, &fakeDevice{j: j, rate: testRate, started: make(chan device.Processor, 1)}, &fakeMonitor{j: j}
}

func runEngine(t *testing.T, e *Engine, dev *fakeDevice, frames int) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	select {
	case p := <-dev.started:
		in := make([]float32, frames)
		out := make([]float32, frames)
		p.Process(in, in, out, append([]float32(nil), out...))
	case <-time.After(2 * time.Second):
		t.Fatal("device never started")
	}

	cancel()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	_, dev, mon := newFakes()

	_, err := NewEngine(EngineConfig{Device: dev})
	assert.ErrorIs(t, err, ErrNoClickSource)

	_, err = NewEngine(EngineConfig{Monitor: mon})
	assert.Error(t, err)
}

func TestEngineOpenBuildsControlForActualRate(t *testing.T) {
	_, dev, mon := newFakes()
	dev.rate = 44100

	e, err := NewEngine(EngineConfig{Config: config.Default(), Monitor: mon, Device: dev, SampleRate: 48000})
	require.NoError(t, err)
	assert.Nil(t, e.Control())

	format, err := e.Open()
	require.NoError(t, err)
	assert.Equal(t, 44100, format.SampleRate)
	assert.Equal(t, format, e.Format())
	require.NotNil(t, e.Control())

	// a second Open reuses the stream
	_, err = e.Open()
	require.NoError(t, err)
}

func TestEngineOpenFailure(t *testing.T) {
	_, dev, mon := newFakes()
	dev.openErr = errors.New("no such device")

	e, err := NewEngine(EngineConfig{Config: config.Default(), Monitor: mon, Device: dev})
	require.NoError(t, err)

	err = e.Run(context.Background())
	assert.ErrorContains(t, err, "no such device")
}

func TestEngineOpenFallsBackToDefaultDelays(t *testing.T) {
	_, dev, mon := newFakes()
	bad := config.Default()
	bad.Delays.Fade = 0

	e, err := NewEngine(EngineConfig{Config: bad, Monitor: mon, Device: dev})
	require.NoError(t, err)

	_, err = e.Open()
	require.NoError(t, err)
	require.NotNil(t, e.Control())

	applied, ok := e.Info().Delays()
	require.True(t, ok)
	assert.Equal(t, config.Default().Delays, applied)
}

func TestEngineCloseWithoutRun(t *testing.T) {
	j, dev, mon := newFakes()
	dir := t.TempDir()

	e, err := NewEngine(EngineConfig{Config: config.Default(), Monitor: mon, Device: dev, DumpDir: dir})
	require.NoError(t, err)
	_, err = e.Open()
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.Equal(t, []string{"device.open", "device.close", "monitor.stop"}, j.list())

	_, err = os.Stat(filepath.Join(dir, wavdump.TrackRaw.Filename()))
	assert.NoError(t, err)
}

func TestEngineShutdownOrder(t *testing.T) {
	j, dev, mon := newFakes()
	spk := &fakeSpeaker{j: j}

	e, err := NewEngine(EngineConfig{Config: config.Default(), Monitor: mon, Device: dev, Speaker: spk})
	require.NoError(t, err)

	require.NoError(t, runEngine(t, e, dev, 256))

	assert.Equal(t, []string{
		"device.open",
		"monitor.start",
		"speaker.open",
		"device.start",
		"device.close",
		"monitor.stop",
		"speaker.close",
	}, j.list())
	assert.Equal(t, 256, spk.frames)
	assert.Equal(t, uint64(256), e.Info().Clock())
	assert.Len(t, e.Devices(), 1)
}

func TestEngineStartFailureShutsDown(t *testing.T) {
	j, dev, mon := newFakes()
	dev.startErr = errors.New("busy")

	e, err := NewEngine(EngineConfig{Config: config.Default(), Monitor: mon, Device: dev})
	require.NoError(t, err)

	err = e.Run(context.Background())
	assert.ErrorContains(t, err, "busy")
	assert.Contains(t, j.list(), "monitor.stop")
	assert.Contains(t, j.list(), "device.close")
}

func TestEngineFlushesDumps(t *testing.T) {
	_, dev, mon := newFakes()
	dir := t.TempDir()

	e, err := NewEngine(EngineConfig{Config: config.Default(), Monitor: mon, Device: dev, DumpDir: dir})
	require.NoError(t, err)

	require.NoError(t, runEngine(t, e, dev, 512))
	assert.Equal(t, uint64(0), e.DumpDropped())

	for tr := wavdump.TrackRaw; tr <= wavdump.TrackMarker; tr++ {
		st, err := os.Stat(filepath.Join(dir, tr.Filename()))
		require.NoError(t, err)
		assert.Greater(t, st.Size(), int64(44), tr.Filename())
	}
}

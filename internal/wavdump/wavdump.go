// ABOUTME: Debug WAV dumping of the processing chain
// ABOUTME: Audio thread hands preallocated chunks to a writer goroutine
package wavdump

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

// Track identifies one of the dumped signals
type Track int

const (
	TrackRaw Track = iota
	TrackDelayed
	TrackOutput
	TrackMarker
	numTracks
)

var trackNames = [numTracks]string{"0-raw.wav", "1-delayed.wav", "2-output.wav", "3-marker.wav"}

func (t Track) Filename() string {
	if t < 0 || t >= numTracks {
		return fmt.Sprintf("track-%d.wav", int(t))
	}
	return trackNames[t]
}

const (
	defaultChunkFrames = 4096
	defaultChunks      = 32
	bitDepth           = 16
	pcmFormat          = 1
)

// Options size the chunk pool
type Options struct {
	ChunkFrames int
	Chunks      int
}

type chunk struct {
	n    int
	data [numTracks][]float32
}

// Dump writes four mono tracks to a directory
type Dump struct {
	dir  string
	rate int

	pool  chan *chunk
	queue chan *chunk

	files [numTracks]*os.File
	encs  [numTracks]*wav.Encoder
	ibuf  *goaudio.IntBuffer

	dropped atomic.Uint64
	closed  atomic.Bool

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Open creates the track files in dir and starts the writer goroutine
func Open(dir string, rate int, opts Options) (*Dump, error) {
	if opts.ChunkFrames <= 0 {
		opts.ChunkFrames = defaultChunkFrames
	}
	if opts.Chunks <= 0 {
		opts.Chunks = defaultChunks
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}

	d := &Dump{
		dir:   dir,
		rate:  rate,
		pool:  make(chan *chunk, opts.Chunks),
		queue: make(chan *chunk, opts.Chunks),
		ibuf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
			Data:           make([]int, opts.ChunkFrames),
			SourceBitDepth: bitDepth,
		},
	}

	for i := 0; i < opts.Chunks; i++ {
		c := &chunk{}
		for t := range c.data {
			c.data[t] = make([]float32, opts.ChunkFrames)
		}
		d.pool <- c
	}

	for t := Track(0); t < numTracks; t++ {
		f, err := os.Create(filepath.Join(dir, t.Filename()))
		if err != nil {
			d.closeFiles()
			return nil, fmt.Errorf("failed to create %s: %w", t.Filename(), err)
		}
		d.files[t] = f
		d.encs[t] = wav.NewEncoder(f, rate, bitDepth, 1, pcmFormat)
	}

	d.wg.Add(1)
	go d.run()

	logrus.WithFields(logrus.Fields{
		"function": "wavdump.Open",
		"dir":      dir,
	}).Info("Dumping debug tracks")

	return d, nil
}

// Push copies one buffer of every track. It never blocks; when the writer
// falls behind the buffer is dropped and counted.
func (d *Dump) Push(raw, delayed, out, marker []float32) {
	if d.closed.Load() {
		return
	}
	tracks := [numTracks][]float32{raw, delayed, out, marker}
	n := min(len(raw), len(delayed), len(out), len(marker))

	for pos := 0; pos < n; {
		var c *chunk
		select {
		case c = <-d.pool:
		default:
			d.dropped.Add(uint64(n - pos))
			return
		}

		c.n = min(n-pos, len(c.data[0]))
		for t := range tracks {
			copy(c.data[t], tracks[t][pos:pos+c.n])
		}
		pos += c.n

		select {
		case d.queue <- c:
		default:
			d.pool <- c
			d.dropped.Add(uint64(c.n))
			return
		}
	}
}

func (d *Dump) run() {
	defer d.wg.Done()

	failed := false
	for c := range d.queue {
		if !failed {
			if err := d.write(c); err != nil {
				logrus.WithError(err).Error("Debug dump write failed, discarding further data")
				failed = true
			}
		}
		d.pool <- c
	}
}

func (d *Dump) write(c *chunk) error {
	d.ibuf.Data = d.ibuf.Data[:c.n]
	for t := range c.data {
		for i, s := range c.data[t][:c.n] {
			d.ibuf.Data[i] = int(audio.FloatToInt16(s))
		}
		if err := d.encs[t].Write(d.ibuf); err != nil {
			return fmt.Errorf("failed to write %s: %w", Track(t).Filename(), err)
		}
	}
	return nil
}

// Dropped returns how many frames were lost because the writer lagged
func (d *Dump) Dropped() uint64 {
	return d.dropped.Load()
}

// Close flushes pending chunks and finalizes the files. Push must not be
// running concurrently.
func (d *Dump) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.queue)
		d.wg.Wait()

		var errs []error
		for _, enc := range d.encs {
			if enc != nil {
				errs = append(errs, enc.Close())
			}
		}
		errs = append(errs, d.closeFiles())
		d.closeErr = errors.Join(errs...)

		if n := d.dropped.Load(); n > 0 {
			logrus.WithField("frames", n).Warn("Debug dump dropped frames")
		}
	})
	return d.closeErr
}

func (d *Dump) closeFiles() error {
	var errs []error
	for i, f := range d.files {
		if f != nil {
			errs = append(errs, f.Close())
			d.files[i] = nil
		}
	}
	return errors.Join(errs...)
}

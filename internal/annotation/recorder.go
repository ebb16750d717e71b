package annotation

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ivlev/affectmark/internal/fsutil"
)

var (
	ErrWrite   = errors.New("annotation write failed")
	ErrNoVideo = errors.New("no video loaded")
	ErrValue   = errors.New("rating is not a finite number")
)

// Clock reports the current playback position.
type Clock interface {
	TimeMs() int
}

// track holds every sample given for one video. Tracks are kept for the
// whole session so reopening a video continues its sequences.
type track struct {
	video   string
	samples [2][]Sample
	failed  [2]bool
}

// Recorder turns rating changes into append-only per-channel sample logs
// and rewrites the channel file after every sample.
type Recorder struct {
	clock     Clock
	raterID   string
	outputDir string

	tracks  map[string]*track
	order   []string
	current *track

	writeErrors int
	writeFile   func(path string, data []byte) error
}

// NewRecorder creates a recorder. An empty outputDir writes next to each
// video.
func NewRecorder(clock Clock, raterID, outputDir string) *Recorder {
	return &Recorder{
		clock:     clock,
		raterID:   raterID,
		outputDir: outputDir,
		tracks:    make(map[string]*track),
		writeFile: func(path string, data []byte) error {
			return fsutil.WriteFileAtomic(path, data, 0o644)
		},
	}
}

// SetVideo selects the video subsequent samples belong to.
func (r *Recorder) SetVideo(video string) {
	t, ok := r.tracks[video]
	if !ok {
		t = &track{video: video}
		r.tracks[video] = t
		r.order = append(r.order, video)
	}
	r.current = t
}

func (r *Recorder) Video() string {
	if r.current == nil {
		return ""
	}
	return r.current.video
}

func (r *Recorder) RaterID() string {
	return r.raterID
}

// Record stamps raw with the engine's position at this moment, appends it
// and persists the whole channel. A write failure is returned wrapped in
// ErrWrite but the sample is kept and goes out with the next write.
func (r *Recorder) Record(ch Channel, raw float64) (Sample, error) {
	if r.current == nil {
		return Sample{}, ErrNoVideo
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return Sample{}, fmt.Errorf("%w: %v", ErrValue, raw)
	}

	s := Sample{
		Time:  float64(r.clock.TimeMs()) / 1000,
		Value: raw,
	}
	t := r.current
	t.samples[ch] = append(t.samples[ch], s)

	path := r.path(t.video, ch)
	if err := r.writeFile(path, Format(t.samples[ch])); err != nil {
		t.failed[ch] = true
		r.writeErrors++
		return s, fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	t.failed[ch] = false
	return s, nil
}

// Samples returns a copy of the current video's sequence for ch.
func (r *Recorder) Samples(ch Channel) []Sample {
	if r.current == nil {
		return nil
	}
	return append([]Sample(nil), r.current.samples[ch]...)
}

// Path is the output file for ch of the current video.
func (r *Recorder) Path(ch Channel) string {
	if r.current == nil {
		return ""
	}
	return r.path(r.current.video, ch)
}

func (r *Recorder) path(video string, ch Channel) string {
	return OutputPath(video, r.outputDir, ch, r.raterID)
}

func (r *Recorder) WriteErrors() int {
	return r.writeErrors
}

// VideoSummary describes what was captured for one video.
type VideoSummary struct {
	Video   string         `yaml:"video"`
	Samples map[string]int `yaml:"samples"`
	Files   []string       `yaml:"files"`
	Pending []string       `yaml:"pending,omitempty"`
}

// Summary lists every video rated in this session, in the order they were
// first opened.
func (r *Recorder) Summary() []VideoSummary {
	out := make([]VideoSummary, 0, len(r.order))
	for _, video := range r.order {
		t := r.tracks[video]
		vs := VideoSummary{Video: video, Samples: map[string]int{}}
		for _, ch := range Channels {
			n := len(t.samples[ch])
			if n == 0 {
				continue
			}
			vs.Samples[ch.String()] = n
			vs.Files = append(vs.Files, r.path(video, ch))
			if t.failed[ch] {
				vs.Pending = append(vs.Pending, ch.String())
			}
		}
		sort.Strings(vs.Files)
		out = append(out, vs)
	}
	return out
}

// OutputPath builds <dir>/<video stem>_<Label>_Rater<id>.txt, dir being the
// video's own directory unless outputDir is set.
func OutputPath(video, outputDir string, ch Channel, raterID string) string {
	base := filepath.Base(video)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(video)
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s_Rater%s.txt", stem, ch.Label(), raterID))
}

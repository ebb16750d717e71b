// Package stats writes the end-of-session report.
package stats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/affectmark/internal/annotation"
)

const DefaultReportPath = "affectmark_report.yaml"

// Report is one rating session. Reports are appended to the report file as
// separate YAML documents.
type Report struct {
	SessionID   string                    `yaml:"session_id"`
	Rater       string                    `yaml:"rater"`
	Started     time.Time                 `yaml:"started"`
	Ended       time.Time                 `yaml:"ended"`
	Duration    string                    `yaml:"duration"`
	Ticks       int                       `yaml:"ticks"`
	Videos      []annotation.VideoSummary `yaml:"videos"`
	WriteErrors int                       `yaml:"write_errors"`
	Process     *Process                  `yaml:"process,omitempty"`
}

type Process struct {
	CPUSeconds float64 `yaml:"cpu_seconds"`
	RSSBytes   uint64  `yaml:"rss_bytes"`
}

// Sample reads CPU time and resident memory of the current process.
func Sample() (*Process, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open process: %w", err)
	}
	times, err := p.Times()
	if err != nil {
		return nil, fmt.Errorf("cpu times: %w", err)
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("memory info: %w", err)
	}
	return &Process{
		CPUSeconds: times.User + times.System,
		RSSBytes:   mem.RSS,
	}, nil
}

// Append adds r to the report file at path, creating it when needed.
func Append(path string, r *Report) error {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadAll decodes every report stored at path, oldest first.
func ReadAll(path string) ([]Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []Report
	for {
		var r Report
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		out = append(out, r)
	}
	return out, nil
}

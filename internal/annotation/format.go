package annotation

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Format renders samples as a two-column whitespace separated table, one
// row per sample, in the layout numpy's savetxt produces by default.
func Format(samples []Sample) []byte {
	var buf bytes.Buffer
	for _, s := range samples {
		fmt.Fprintf(&buf, "%.18e %.18e\n", s.Time, s.Value)
	}
	return buf.Bytes()
}

// ReadFile parses a channel file written by Format.
func ReadFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var samples []Sample
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected 2 columns, got %d", path, line, len(fields))
		}
		ts, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: timestamp: %w", path, line, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: value: %w", path, line, err)
		}
		samples = append(samples, Sample{Time: ts, Value: v})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

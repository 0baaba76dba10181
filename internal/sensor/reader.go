// Package sensor reads the chamber temperature from the CSV files written by
// the external data logger.
package sensor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"chamber_control/internal/logger"
)

// Defaults match the logger deployed with the chamber: files named P6*.csv,
// two probe columns at positions 3 and 4.
const (
	DefaultPrefix     = "P6"
	DefaultExt        = ".csv"
	DefaultMinColumns = 5
)

var DefaultColumns = [2]int{3, 4}

var (
	ErrNoDataFile = errors.New("no matching data file")
	ErrEmptyFile  = errors.New("data file has no records")
	ErrShortRow   = errors.New("last record has too few columns")
)

// Options selects files and columns.
type Options struct {
	Prefix     string
	Ext        string
	Columns    [2]int
	MinColumns int
}

func (o Options) withDefaults() Options {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Ext == "" {
		o.Ext = DefaultExt
	}
	if o.Columns == [2]int{} {
		o.Columns = DefaultColumns
	}
	if o.MinColumns <= 0 {
		o.MinColumns = DefaultMinColumns
	}
	return o
}

// Sample is one derived temperature reading.
type Sample struct {
	Value  float64
	File   string
	Fields [2]float64
}

// Reader polls a log directory for the newest data file.
type Reader struct {
	dir  string
	opts Options
	log  *logger.Logger
}

func NewReader(dir string, opts Options, log *logger.Logger) *Reader {
	return &Reader{dir: dir, opts: opts.withDefaults(), log: log}
}

// Dir returns the watched directory.
func (r *Reader) Dir() string { return r.dir }

// ReadTemperature returns the latest temperature or false. Failures are
// logged here and never propagate.
func (r *Reader) ReadTemperature() (float64, bool) {
	s, err := r.Latest()
	if err != nil {
		r.log.Warnw("sensor_read_failed", "dir", r.dir, "err", err)
		return 0, false
	}
	r.log.Debugw("sensor_read", "file", s.File, "fields", s.Fields, "temp_c", s.Value)
	return s.Value, true
}

// Latest reads the last record of the newest matching file.
func (r *Reader) Latest() (Sample, error) {
	name, err := r.latestFile()
	if err != nil {
		return Sample{}, err
	}
	path := filepath.Join(r.dir, name)
	fields, err := r.lastFields(path)
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", name, err)
	}
	return Sample{
		Value:  (fields[0] + fields[1]) / 2,
		File:   name,
		Fields: fields,
	}, nil
}

func (r *Reader) matches(name string) bool {
	return strings.HasPrefix(name, r.opts.Prefix) && strings.HasSuffix(name, r.opts.Ext)
}

// latestFile picks the newest file by modification time; equal timestamps
// resolve to the lexicographically greatest name.
func (r *Reader) latestFile() (string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return "", fmt.Errorf("list %q: %w", r.dir, err)
	}
	var (
		best     string
		bestTime time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !r.matches(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		mt := info.ModTime()
		if best == "" || mt.After(bestTime) || (mt.Equal(bestTime) && e.Name() > best) {
			best, bestTime = e.Name(), mt
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: %s*%s in %q", ErrNoDataFile, r.opts.Prefix, r.opts.Ext, r.dir)
	}
	return best, nil
}

// lastFields scans the file and parses the designated columns of the final
// record. The first record is the logger's header row.
func (r *Reader) lastFields(path string) ([2]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return [2]float64{}, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		last []string
		rows int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return [2]float64{}, fmt.Errorf("parse csv: %w", err)
		}
		last = rec
		rows++
	}
	if rows < 2 {
		return [2]float64{}, ErrEmptyFile
	}
	if len(last) < r.opts.MinColumns || len(last) <= max(r.opts.Columns[0], r.opts.Columns[1]) {
		return [2]float64{}, fmt.Errorf("%w: got %d", ErrShortRow, len(last))
	}

	var out [2]float64
	for i, col := range r.opts.Columns {
		v, err := strconv.ParseFloat(strings.TrimSpace(last[col]), 64)
		if err != nil {
			return [2]float64{}, fmt.Errorf("column %d: %w", col, err)
		}
		out[i] = v
	}
	return out, nil
}

// Package dataset stores the peak measurements of a makeup-gain sweep.
//
// Two file formats are supported, chosen by extension:
//
//   - .npy: an N×4 float64 matrix (drive, saturation, width, peak) readable
//     with numpy.load. The sweep metadata is not stored.
//   - .msgpack.zst: the full Dataset, msgpack-encoded and zstd-compressed.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/sbinet/npyio"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

// File extensions.
const (
	ExtNPY     = ".npy"
	ExtMsgpack = ".msgpack.zst"
)

// Columns of the matrix form.
const (
	ColDrive = iota
	ColSaturation
	ColWidth
	ColPeak
	NumColumns
)

// ErrUnknownFormat is returned for a path with an unsupported extension.
var ErrUnknownFormat = errors.New("dataset: unknown file format")

// Record is one measured point of the sweep.
type Record struct {
	Drive      float64 `msgpack:"drive"`
	Saturation float64 `msgpack:"saturation"`
	Width      float64 `msgpack:"width"`
	Peak       float64 `msgpack:"peak"`
}

// Dataset is a sweep result with the conditions it was measured under.
type Dataset struct {
	SampleRate float64  `msgpack:"sample_rate"`
	ToneHz     float64  `msgpack:"tone_hz"`
	Samples    int      `msgpack:"samples"`
	Records    []Record `msgpack:"records"`
}

// Matrix returns the records as an N×NumColumns matrix.
func (d *Dataset) Matrix() *mat.Dense {
	if len(d.Records) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(len(d.Records), NumColumns, nil)
	for i, r := range d.Records {
		m.SetRow(i, []float64{r.Drive, r.Saturation, r.Width, r.Peak})
	}
	return m
}

// RecordsFromMatrix converts an N×NumColumns matrix back to records.
func RecordsFromMatrix(m mat.Matrix) ([]Record, error) {
	rows, cols := m.Dims()
	if cols != NumColumns {
		return nil, fmt.Errorf("dataset matrix has %d columns, want %d", cols, NumColumns)
	}
	records := make([]Record, rows)
	for i := range records {
		records[i] = Record{
			Drive:      m.At(i, ColDrive),
			Saturation: m.At(i, ColSaturation),
			Width:      m.At(i, ColWidth),
			Peak:       m.At(i, ColPeak),
		}
	}
	return records, nil
}

// WriteNPY writes the record matrix in numpy format.
func WriteNPY(w io.Writer, d *Dataset) error {
	if len(d.Records) == 0 {
		return errors.New("dataset is empty")
	}
	if err := npyio.Write(w, d.Matrix()); err != nil {
		return fmt.Errorf("failed to encode npy: %w", err)
	}
	return nil
}

// ReadNPY reads a record matrix written by WriteNPY or numpy.save.
func ReadNPY(r io.Reader) (*Dataset, error) {
	var m mat.Dense
	if err := npyio.Read(r, &m); err != nil {
		return nil, fmt.Errorf("failed to decode npy: %w", err)
	}
	records, err := RecordsFromMatrix(&m)
	if err != nil {
		return nil, err
	}
	return &Dataset{Records: records}, nil
}

// WriteMsgpack writes the dataset as zstd-compressed msgpack.
func WriteMsgpack(w io.Writer, d *Dataset) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(d); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return nil
}

// ReadMsgpack reads a dataset written by WriteMsgpack.
func ReadMsgpack(r io.Reader) (*Dataset, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var d Dataset
	if err := msgpack.NewDecoder(zr).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return &d, nil
}

// Save writes d to path in the format named by its extension.
func Save(path string, d *Dataset) error {
	write, err := writerFor(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	if err := write(f, d); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Load reads a dataset from path in the format named by its extension.
func Load(path string) (*Dataset, error) {
	read, err := readerFor(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return read(f)
}

// WriteMatrix saves an arbitrary matrix as .npy, for exporting curves such
// as hysteresis loops.
func WriteMatrix(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := npyio.Write(f, m); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode npy: %w", err)
	}
	return f.Close()
}

func writerFor(path string) (func(io.Writer, *Dataset) error, error) {
	switch {
	case strings.HasSuffix(path, ExtMsgpack):
		return WriteMsgpack, nil
	case strings.HasSuffix(path, ExtNPY):
		return WriteNPY, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func readerFor(path string) (func(io.Reader) (*Dataset, error), error) {
	switch {
	case strings.HasSuffix(path, ExtMsgpack):
		return ReadMsgpack, nil
	case strings.HasSuffix(path, ExtNPY):
		return ReadNPY, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

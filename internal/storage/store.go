package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/bdsim/internal/sim"
)

// ErrIO wraps failures to create, write or read result files.
var ErrIO = errors.New("storage")

var fileNamePattern = regexp.MustCompile(`^L(\d+)_k(\d+)_seeds(\d+)_pbc([01])_iseed(\d+)\.csv$`)

// Store writes one CSV file per ensemble into a flat directory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, s.baseDir, err)
	}
	return nil
}

// Key identifies an ensemble result file.
type Key struct {
	Length     uint32
	KNeighbour uint32
	SeedCount  uint32
	Periodic   bool
	InitSeed   uint32
}

func KeyOf(cfg sim.Config) Key {
	return Key{
		Length:     cfg.Length,
		KNeighbour: cfg.KNeighbour,
		SeedCount:  cfg.SeedCount,
		Periodic:   cfg.Periodic,
		InitSeed:   cfg.BaseSeed,
	}
}

func (k Key) FileName() string {
	pbc := 0
	if k.Periodic {
		pbc = 1
	}
	return fmt.Sprintf("L%d_k%d_seeds%d_pbc%d_iseed%d.csv", k.Length, k.KNeighbour, k.SeedCount, pbc, k.InitSeed)
}

// ParseFileName recovers the Key encoded in a result file name.
func ParseFileName(name string) (Key, bool) {
	m := fileNamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return Key{}, false
	}
	nums := make([]uint32, 0, 4)
	for _, idx := range []int{1, 2, 3, 5} {
		v, err := strconv.ParseUint(m[idx], 10, 32)
		if err != nil {
			return Key{}, false
		}
		nums = append(nums, uint32(v))
	}
	return Key{
		Length:     nums[0],
		KNeighbour: nums[1],
		SeedCount:  nums[2],
		Periodic:   m[4] == "1",
		InitSeed:   nums[3],
	}, true
}

func (s *Store) Path(k Key) string {
	return filepath.Join(s.baseDir, k.FileName())
}

// Save writes the averaged series as rows of width, mean height and time,
// without a header, and returns the file path. Rows go to a temporary file
// that is renamed into place, so a failed write never leaves a partial result
// under a result file name.
func (s *Store) Save(res *sim.EnsembleResult) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	path := s.Path(KeyOf(res.Config))
	tmp, err := os.CreateTemp(s.baseDir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := writeRows(tmp, &res.Series); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}

	return path, nil
}

func writeRows(out io.Writer, series *sim.Series) error {
	w := csv.NewWriter(out)
	for i := 0; i < series.Len(); i++ {
		row := []string{
			formatFloat(series.Width[i]),
			formatFloat(series.MeanHeight[i]),
			formatFloat(series.Time[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Load reads a result file back. name may be a bare file name inside the
// store or a path.
func (s *Store) Load(name string) (*sim.Series, error) {
	path := name
	if filepath.Base(name) == name {
		path = filepath.Join(s.baseDir, name)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 3

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}

	series := &sim.Series{
		Width:      make([]float64, 0, len(records)),
		MeanHeight: make([]float64, 0, len(records)),
		Time:       make([]float64, 0, len(records)),
	}
	for i, record := range records {
		vals := [3]float64{}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d: %w", ErrIO, path, i+1, err)
			}
			vals[j] = v
		}
		series.Width = append(series.Width, vals[0])
		series.MeanHeight = append(series.MeanHeight, vals[1])
		series.Time = append(series.Time, vals[2])
	}

	return series, nil
}

// Entry is a result file found in the store.
type Entry struct {
	Key     Key
	Name    string
	ModTime time.Time
	Size    int64
}

// List returns the result files in the store ordered by length, k, seed
// count, boundary and initial seed. Files not following the naming scheme
// are skipped.
func (s *Store) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	out := make([]Entry, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := ParseFileName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Key: key, Name: entry.Name(), ModTime: info.ModTime(), Size: info.Size()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key.less(out[j].Key) })
	return out, nil
}

func (k Key) less(o Key) bool {
	if k.Length != o.Length {
		return k.Length < o.Length
	}
	if k.KNeighbour != o.KNeighbour {
		return k.KNeighbour < o.KNeighbour
	}
	if k.SeedCount != o.SeedCount {
		return k.SeedCount < o.SeedCount
	}
	if k.Periodic != o.Periodic {
		return !k.Periodic
	}
	return k.InitSeed < o.InitSeed
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/cstrsim/internal/config"
	"github.com/san-kum/cstrsim/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	datasetFile  = "dataset.csv"
)

// Dataset column names, in file order. Fit columns follow as
// <method>_Ca and <method>_T.
var baseColumns = []string{"time", "F", "W", "Ca_in", "T_in", "Ca", "T", "Ca_meas", "T_meas"}

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string               `json:"id"`
	Timestamp  time.Time            `json:"timestamp"`
	Seed       uint64               `json:"seed"`
	Ts         float64              `json:"ts"`
	Tfin       float64              `json:"tfin"`
	Samples    int                  `json:"samples"`
	Integrator string               `json:"integrator"`
	Substeps   int                  `json:"substeps"`
	Plant      map[string]float64   `json:"plant"`
	Metrics    map[string]float64   `json:"metrics"`
	Fits       map[string][]float64 `json:"fits"`
	Skipped    map[string]string    `json:"skipped,omitempty"`
	Excitation map[string]float64   `json:"excitation,omitempty"`
}

func newRunID(now time.Time) string {
	return fmt.Sprintf("cstr_%s_%s", now.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}

// Save writes the metadata, the configuration and the full dataset of one
// experiment into a fresh run directory and returns its ID.
func (s *Store) Save(cfg *config.Config, out *experiment.Outcome) (string, error) {
	now := time.Now()
	runID := newRunID(now)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Timestamp:  now,
		Seed:       out.Seed,
		Ts:         cfg.Ts,
		Tfin:       cfg.Tfin,
		Samples:    out.Dataset.Samples(),
		Integrator: cfg.Integrator,
		Substeps:   cfg.Substeps,
		Plant:      cfg.NewPlant().GetParams(),
		Metrics:    finiteMetrics(out.Result.Metrics),
		Fits:       make(map[string][]float64),
		Skipped:    make(map[string]string),
		Excitation: finiteMetrics(out.Excitation),
	}
	for _, f := range out.Fits {
		meta.Fits[f.Method] = finite(f.Percent)
	}
	for method, err := range out.Skipped {
		meta.Skipped[method] = err.Error()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeDataset(filepath.Join(runDir, datasetFile), out); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeDataset(path string, out *experiment.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{}, baseColumns...)
	for _, fit := range out.Fits {
		header = append(header, fit.Method+"_Ca", fit.Method+"_T")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	ds := out.Dataset
	row := make([]string, len(header))
	for k, t := range ds.Times {
		vals := []float64{t,
			ds.U.At(0, k), ds.U.At(1, k), ds.U.At(2, k), ds.U.At(3, k),
			ds.X.At(0, k), ds.X.At(1, k),
			ds.Y.At(0, k), ds.Y.At(1, k),
		}
		for _, fit := range out.Fits {
			vals = append(vals, fit.Yid.At(0, k), fit.Yid.At(1, k))
		}
		for i, v := range vals {
			row[i] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// JSON cannot encode NaN or Inf: non-finite metrics are dropped.
func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// finite maps NaN to 0 and clamps infinities for JSON encoding.
func finite(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		switch {
		case math.IsNaN(v):
			out[i] = 0
		case math.IsInf(v, 1):
			out[i] = math.MaxFloat64
		case math.IsInf(v, -1):
			out[i] = -math.MaxFloat64
		default:
			out[i] = v
		}
	}
	return out
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// Table is a loaded dataset, stored column-wise.
type Table struct {
	Columns []string
	Values  [][]float64
}

// Column returns the named column, or nil if absent.
func (t *Table) Column(name string) []float64 {
	for i, c := range t.Columns {
		if c == name {
			return t.Values[i]
		}
	}
	return nil
}

func (s *Store) LoadDataset(runID string) (*Table, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, datasetFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	header := records[0]
	table := &Table{
		Columns: header,
		Values:  make([][]float64, len(header)),
	}
	for i := range table.Values {
		table.Values[i] = make([]float64, 0, len(records)-1)
	}

	for line, record := range records[1:] {
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %s: %w", datasetFile, line+2, header[i], err)
			}
			table.Values[i] = append(table.Values[i], v)
		}
	}

	return table, nil
}

package storage

import (
	"encoding/json"
	"io"
)

// Export is a self-contained JSON rendition of one stored run.
type Export struct {
	Run     RunMetadata          `json:"run"`
	Columns map[string][]float64 `json:"columns"`
}

// ExportJSON writes the metadata and every dataset column of runID to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	table, err := s.LoadDataset(runID)
	if err != nil {
		return err
	}

	data := Export{
		Run:     *meta,
		Columns: make(map[string][]float64, len(table.Columns)),
	}
	for i, name := range table.Columns {
		data.Columns[name] = table.Values[i]
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

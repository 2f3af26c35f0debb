package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/cstrsim/internal/config"
	"github.com/san-kum/cstrsim/internal/experiment"
)

func runShort(t *testing.T) (*config.Config, *experiment.Outcome) {
	t.Helper()
	cfg := config.GetPreset("short")
	cfg.Tfin = 200
	cfg.Seed = 42

	out, err := experiment.New(cfg, nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("experiment failed: %v", err)
	}
	return cfg, out
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, out := runShort(t)
	runID, err := st.Save(cfg, out)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Samples != 201 {
		t.Errorf("expected 201 samples, got %d", meta.Samples)
	}
	if _, ok := meta.Fits["ARX"]; !ok {
		t.Errorf("expected ARX fit in metadata, got %v", meta.Fits)
	}
	if _, ok := meta.Skipped["ARMAX"]; !ok {
		t.Errorf("expected ARMAX to be recorded as skipped, got %v", meta.Skipped)
	}
	if meta.Plant["latent_heat"] != 2272 || meta.Plant["volume"] != 10 {
		t.Errorf("expected plant constants in metadata, got %v", meta.Plant)
	}
	if _, ok := meta.Metrics["mean_steam"]; !ok {
		t.Errorf("expected mean_steam metric, got %v", meta.Metrics)
	}

	loadedCfg, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if loadedCfg.Seed != 42 || loadedCfg.Tfin != 200 {
		t.Errorf("stored config lost values: seed=%d tfin=%v", loadedCfg.Seed, loadedCfg.Tfin)
	}

	table, err := st.LoadDataset(runID)
	if err != nil {
		t.Fatalf("load dataset failed: %v", err)
	}

	if len(table.Columns) != len(baseColumns)+2 {
		t.Errorf("expected %d columns, got %v", len(baseColumns)+2, table.Columns)
	}
	times := table.Column("time")
	if len(times) != 201 || times[200] != 200 {
		t.Errorf("unexpected time column of length %d", len(times))
	}
	if table.Column("ARX_T") == nil {
		t.Error("missing ARX_T column")
	}
	if table.Column("nope") != nil {
		t.Error("unknown column should be nil")
	}
	ca := table.Column("Ca")
	if ca[0] != 10.0 {
		t.Errorf("expected initial concentration 10, got %f", ca[0])
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	cfg, out := runShort(t)
	if _, err := st.Save(cfg, out); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := st.Save(cfg, out); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID == runs[1].ID {
		t.Error("run ids must be unique")
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	cfg, out := runShort(t)
	runID, err := st.Save(cfg, out)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{metadataFile, configFile, datasetFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadDataset("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreExportJSON(t *testing.T) {
	st := New(t.TempDir())

	cfg, out := runShort(t)
	runID, err := st.Save(cfg, out)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var exp Export
	if err := json.Unmarshal(buf.Bytes(), &exp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if exp.Run.ID != runID {
		t.Errorf("expected run %s, got %s", runID, exp.Run.ID)
	}
	if len(exp.Columns["T_meas"]) != 201 {
		t.Errorf("expected 201 T_meas samples, got %d", len(exp.Columns["T_meas"]))
	}
	if _, ok := exp.Run.Excitation["F"]; !ok {
		t.Errorf("expected excitation bandwidth for F, got %v", exp.Run.Excitation)
	}

	if err := st.ExportJSON(&buf, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

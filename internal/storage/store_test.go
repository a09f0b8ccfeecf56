package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/bdsim/internal/sim"
)

func testResult() *sim.EnsembleResult {
	return &sim.EnsembleResult{
		Config: sim.Config{Length: 8, MaxTime: 3, KNeighbour: 1, SeedCount: 4, Periodic: true, BaseSeed: 0},
		Series: sim.Series{
			Width:      []float64{1.5, 2.25, 3},
			MeanHeight: []float64{1, 4.875, 9},
			Time:       []float64{1, 2, 3},
		},
		Realizations: 4,
	}
}

func TestKeyFileName(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{Key{Length: 8, KNeighbour: 1, SeedCount: 4, Periodic: true}, "L8_k1_seeds4_pbc1_iseed0.csv"},
		{Key{Length: 1024, KNeighbour: 0, SeedCount: 100, Periodic: false, InitSeed: 42}, "L1024_k0_seeds100_pbc0_iseed42.csv"},
	}

	for _, tt := range tests {
		if got := tt.key.FileName(); got != tt.want {
			t.Errorf("FileName() = %q, want %q", got, tt.want)
		}
		back, ok := ParseFileName(tt.want)
		if !ok || back != tt.key {
			t.Errorf("ParseFileName(%q) = %+v, %v", tt.want, back, ok)
		}
	}
}

func TestParseFileNameRejects(t *testing.T) {
	for _, name := range []string{"notes.txt", "L8_k1_seeds4_pbc2_iseed0.csv", "L8_k1_seeds4_pbc1.csv", "xL8_k1_seeds4_pbc1_iseed0.csv"} {
		if _, ok := ParseFileName(name); ok {
			t.Errorf("ParseFileName(%q) should fail", name)
		}
	}
}

func TestStoreSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	st := New(dir)

	path, err := st.Save(testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if filepath.Base(path) != "L8_k1_seeds4_pbc1_iseed0.csv" {
		t.Errorf("unexpected path %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := "1.5,1,1\n2.25,4.875,2\n3,9,3\n"
	if string(raw) != want {
		t.Errorf("file content = %q, want %q", raw, want)
	}

	series, err := st.Load(filepath.Base(path))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if series.Len() != 3 || series.Width[1] != 2.25 || series.MeanHeight[1] != 4.875 || series.Time[2] != 3 {
		t.Errorf("unexpected series %+v", series)
	}

	if _, err := st.Load(path); err != nil {
		t.Errorf("load by path failed: %v", err)
	}
}

func TestStoreLoadErrors(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	if _, err := st.Load("missing.csv"); !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Load("bad.csv"); !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO for short row, got %v", err)
	}
}

func TestStoreInitFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	st := New(filepath.Join(blocker, "data"))
	if _, err := st.Save(testResult()); !errors.Is(err, ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteRowsError(t *testing.T) {
	if err := writeRows(failingWriter{}, &testResult().Series); err == nil {
		t.Error("expected the writer error to surface")
	}
}

func TestStoreSaveFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	// a directory squatting on the result name makes the final rename fail
	target := st.Path(KeyOf(testResult().Config))
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := st.Save(testResult()); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("stray files after failed save: %v", names)
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Save(testResult()); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	res := testResult()
	res.Series = sim.Series{Width: []float64{2}, MeanHeight: []float64{3}, Time: []float64{1}}
	path, err := st.Save(res)
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "2,3,1\n" {
		t.Errorf("file content = %q", raw)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	entries, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}

	res := testResult()
	if _, err := st.Save(res); err != nil {
		t.Fatal(err)
	}
	res.Config.Length = 4
	if _, err := st.Save(res); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Key.Length != 4 || entries[1].Key.Length != 8 {
		t.Errorf("entries not ordered by length: %+v", entries)
	}
}

func TestListMissingDir(t *testing.T) {
	entries, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(entries) != 0 {
		t.Errorf("List on missing dir = %v, %v", entries, err)
	}
}

func TestExportJSON(t *testing.T) {
	res := testResult()
	var buf bytes.Buffer
	if err := ExportJSON(&buf, KeyOf(res.Config), &res.Series); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var out ExportData
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Samples != 3 || out.Length != 8 || !out.Periodic {
		t.Errorf("unexpected export %+v", out)
	}
	if !strings.Contains(buf.String(), "avg_interface_width") {
		t.Error("missing width field")
	}
}

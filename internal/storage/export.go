package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/bdsim/internal/sim"
)

type ExportData struct {
	Length     uint32    `json:"length"`
	KNeighbour uint32    `json:"k_neighbour"`
	SeedCount  uint32    `json:"seed_count"`
	Periodic   bool      `json:"periodic_bc"`
	InitSeed   uint32    `json:"init_seed"`
	Samples    int       `json:"samples"`
	Width      []float64 `json:"avg_interface_width"`
	MeanHeight []float64 `json:"avg_mean_height"`
	Time       []float64 `json:"elapsed_time"`
}

func exportData(k Key, series *sim.Series) ExportData {
	return ExportData{
		Length:     k.Length,
		KNeighbour: k.KNeighbour,
		SeedCount:  k.SeedCount,
		Periodic:   k.Periodic,
		InitSeed:   k.InitSeed,
		Samples:    series.Len(),
		Width:      series.Width,
		MeanHeight: series.MeanHeight,
		Time:       series.Time,
	}
}

// ExportJSON writes a stored series as indented JSON to w.
func ExportJSON(w io.Writer, k Key, series *sim.Series) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportData(k, series))
}

func ExportJSONStdout(k Key, series *sim.Series) error {
	return ExportJSON(os.Stdout, k, series)
}

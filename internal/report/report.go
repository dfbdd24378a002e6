// Package report writes simulation output to disk: the full series as JSON
// and a flat CSV table suitable for plotting tools.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-greeks-sim/internal/pricing"
	"github.com/contactkeval/option-greeks-sim/internal/simulate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	SeriesJSON   = "series.json"
	SeriesCSV    = "series.csv"
	EnsembleJSON = "ensemble.json"
)

// fixed-point precision of CSV columns
const (
	pricePlaces = 4
	greekPlaces = 6
)

var csvHeaders = []string{"step", "expiry", "spot", "price", "delta", "gamma", "theta", "vega", "exercise_prob", "time_fraction", "settled"}

type seriesReport struct {
	*simulate.Series
	RealizedVolatility float64 `json:"realized_volatility"`
}

// WriteJSON writes the series, with its realized volatility, to outdir/series.json.
func WriteJSON(series *simulate.Series, outdir string) error {
	rep := seriesReport{Series: series, RealizedVolatility: simulate.RealizedVolatility(series.Spots())}
	return writeJSONFile(filepath.Join(outdir, SeriesJSON), rep)
}

// WriteEnsembleJSON writes an ensemble summary to outdir/ensemble.json.
func WriteEnsembleJSON(res *simulate.EnsembleResult, outdir string) error {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return fmt.Errorf("create report dir %s: %w", outdir, err)
	}
	return writeJSONFile(filepath.Join(outdir, EnsembleJSON), res)
}

func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// WriteCSV writes one row per snapshot to outdir/series.csv.
func WriteCSV(series *simulate.Series, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, SeriesCSV))
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeCSV(f, series)
}

// EncodeCSV writes the CSV table for series to w.
func EncodeCSV(w io.Writer, series *simulate.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return err
	}
	for _, s := range series.Snapshots {
		row := []string{
			strconv.Itoa(s.Step),
			s.Expiry.Format(pricing.DateLayout),
			fixed(s.Spot, pricePlaces),
			fixed(s.Price, pricePlaces),
			fixed(s.Delta, greekPlaces),
			fixed(s.Gamma, greekPlaces),
			fixed(s.Theta, greekPlaces),
			fixed(s.Vega, greekPlaces),
			fixed(s.ExerciseProbability, greekPlaces),
			fixed(s.TimeFraction, greekPlaces),
			strconv.FormatBool(s.Settled),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("step %d: %w", s.Step, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// WriteAll creates outdir if needed and writes both the JSON and CSV reports.
func WriteAll(series *simulate.Series, outdir string) error {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return fmt.Errorf("create report dir %s: %w", outdir, err)
	}
	if err := WriteJSON(series, outdir); err != nil {
		return fmt.Errorf("write %s: %w", SeriesJSON, err)
	}
	if err := WriteCSV(series, outdir); err != nil {
		return fmt.Errorf("write %s: %w", SeriesCSV, err)
	}
	return nil
}

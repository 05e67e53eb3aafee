package render

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"retail-demand-optimizer/internal/forecast"
)

var forecastHeader = []string{"week", "observed", "point_estimate", "lower_bound", "upper_bound", "is_anomaly", "model"}

// ForecastCSV writes one line per forecast point.
func ForecastCSV(w io.Writer, result forecast.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(forecastHeader); err != nil {
		return err
	}

	for _, p := range result.Points {
		record := []string{
			p.Timestamp.Format(time.DateOnly),
			csvNum(p.Observed),
			strconv.FormatFloat(p.PointEstimate, 'f', -1, 64),
			csvNum(p.LowerBound),
			csvNum(p.UpperBound),
			strconv.FormatBool(p.IsAnomaly),
			string(result.ModelUsed),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile creates path, including its directory, and fills it with fn.
func WriteFile(path string, fn func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func csvNum(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

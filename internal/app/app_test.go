package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-demand-optimizer/internal/config"
	"retail-demand-optimizer/internal/ingest"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", fmt.Sprintf(`
database:
  driver: duckdb
  path: %s
export:
  dir: %s
`, filepath.Join(dir, "retail.duckdb"), filepath.Join(dir, "exports")))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	var out bytes.Buffer
	return NewApp(cfg, zerolog.Nop(), &out), &out, dir
}

func seed(t *testing.T, a *App, dir string) {
	t.Helper()
	lines := []string{"Store,Dept,Date,Weekly_Sales,IsHoliday"}
	for w := 0; w < 6; w++ {
		sales := "100"
		if w == 5 {
			sales = "400"
		}
		lines = append(lines, fmt.Sprintf("1,1,2010-%02d-%02d,%s,FALSE", 2+w/4, 1+7*(w%4), sales))
	}
	lines = append(lines, "1,1,garbage,5,FALSE")

	files := map[ingest.Kind]string{
		ingest.KindStores: writeFile(t, dir, "stores.csv", "Store,Type,Size\n1,A,151315\n"),
		ingest.KindTrain:  writeFile(t, dir, "train.csv", strings.Join(lines, "\n")+"\n"),
	}
	require.NoError(t, a.Ingest(context.Background(), IngestOptions{Files: files, InitSchema: true}))
}

func TestIngestRequiresFiles(t *testing.T) {
	a, _, _ := newTestApp(t)
	assert.Error(t, a.Ingest(context.Background(), IngestOptions{}))
}

func TestIngestThenBrowse(t *testing.T) {
	a, out, dir := newTestApp(t)
	seed(t, a, dir)

	report := out.String()
	assert.Contains(t, report, "walmart_train")
	assert.Contains(t, report, "walmart_stores")
	assert.Contains(t, report, "train.csv:8")

	out.Reset()
	require.NoError(t, a.Stores(context.Background()))
	assert.Contains(t, out.String(), "151315")
	assert.Contains(t, out.String(), "900.00")

	out.Reset()
	require.NoError(t, a.View(context.Background(), ViewOptions{Dataset: "walmart", Limit: 2}))
	assert.Contains(t, out.String(), "2 of 6 rows")
}

func TestForecastWritesExports(t *testing.T) {
	a, out, dir := newTestApp(t)
	seed(t, a, dir)
	out.Reset()

	dept := int64(1)
	err := a.Forecast(context.Background(), ForecastOptions{
		Store:   1,
		Dept:    &dept,
		CSVPath: "forecast.csv",
		PNGPath: "forecast.png",
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "rolling_average")
	assert.Contains(t, out.String(), "dept=1,store=1")

	data, err := os.ReadFile(filepath.Join(dir, "exports", "forecast.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "week,observed,point_estimate"))

	png, err := os.ReadFile(filepath.Join(dir, "exports", "forecast.png"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
}

func TestForecastUnknownStore(t *testing.T) {
	a, _, dir := newTestApp(t)
	seed(t, a, dir)

	err := a.Forecast(context.Background(), ForecastOptions{Store: 42})
	assert.Error(t, err)
}

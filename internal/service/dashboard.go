package service

import (
	"context"
	"errors"
	"fmt"

	"retail-demand-optimizer/internal/config"
	"retail-demand-optimizer/internal/insights"
	"retail-demand-optimizer/internal/storage"
)

// ErrNotEnoughData marks a selection below the configured minimum row count.
var ErrNotEnoughData = errors.New("not enough data to analyse")

// DatasetReader is the storage surface used by the dashboard views.
type DatasetReader interface {
	TableRows(ctx context.Context, dataset string, limit int) ([]storage.Row, error)
	CountRows(ctx context.Context, dataset string) (int64, error)
	SuperstoreOrders(ctx context.Context, limit int) ([]storage.SuperstoreOrder, error)
	WalmartSales(ctx context.Context) ([]storage.WalmartSale, error)
	WalmartFeatures(ctx context.Context) ([]storage.WalmartFeature, error)
	ListStores(ctx context.Context) ([]storage.StoreSummary, error)
}

var _ DatasetReader = (*storage.Repository)(nil)

// Preview is a page of raw rows.
type Preview struct {
	Dataset string        `json:"dataset"`
	Total   int64         `json:"total"`
	Rows    []storage.Row `json:"-"`
}

// EDA is the exploratory view of a dataset sample.
type EDA struct {
	Dataset string                 `json:"dataset"`
	Sampled int                    `json:"sampled"`
	Columns []insights.ColumnStats `json:"columns"`
	Head    []storage.Row          `json:"-"`
}

// InsightReport carries the panel for the requested dataset; exactly one of
// Superstore and Walmart is set.
type InsightReport struct {
	Dataset    string                      `json:"dataset"`
	Superstore *insights.SuperstoreSummary `json:"superstore,omitempty"`
	Walmart    *insights.WalmartSummary    `json:"walmart,omitempty"`
}

// Dashboard serves the read-only views shared by the CLI and the HTTP API.
type Dashboard struct {
	reader DatasetReader
	limits config.InsightsConfig
}

// NewDashboard wraps a reader with the configured limits.
func NewDashboard(reader DatasetReader, limits config.InsightsConfig) *Dashboard {
	return &Dashboard{reader: reader, limits: limits}
}

// Preview returns up to limit rows, the configured preview size when limit
// is not positive.
func (d *Dashboard) Preview(ctx context.Context, dataset string, limit int) (Preview, error) {
	if limit <= 0 {
		limit = d.limits.PreviewRows
	}
	rows, err := d.reader.TableRows(ctx, dataset, limit)
	if err != nil {
		return Preview{}, err
	}
	total, err := d.reader.CountRows(ctx, dataset)
	if err != nil {
		return Preview{}, err
	}
	return Preview{Dataset: dataset, Total: total, Rows: rows}, nil
}

// Describe computes column statistics over the dataset sample. Superstore
// is sampled with its own limit.
func (d *Dashboard) Describe(ctx context.Context, dataset string) (EDA, error) {
	rows, err := d.reader.TableRows(ctx, dataset, d.sampleLimit(dataset))
	if err != nil {
		return EDA{}, err
	}
	if err := d.checkRows(dataset, len(rows)); err != nil {
		return EDA{}, err
	}

	head := rows
	if d.limits.PreviewRows > 0 && len(head) > d.limits.PreviewRows {
		head = head[:d.limits.PreviewRows]
	}
	return EDA{
		Dataset: dataset,
		Sampled: len(rows),
		Columns: insights.Describe(rows),
		Head:    head,
	}, nil
}

// Insights builds the summary panel. "superstore" and "walmart" are the only
// datasets with a panel.
func (d *Dashboard) Insights(ctx context.Context, dataset string) (InsightReport, error) {
	switch dataset {
	case "superstore":
		orders, err := d.reader.SuperstoreOrders(ctx, d.limits.SuperstoreLimit)
		if err != nil {
			return InsightReport{}, err
		}
		if err := d.checkRows(dataset, len(orders)); err != nil {
			return InsightReport{}, err
		}
		summary := insights.SummarizeSuperstore(orders, d.limits.TopK)
		return InsightReport{Dataset: dataset, Superstore: &summary}, nil
	case "walmart":
		sales, err := d.reader.WalmartSales(ctx)
		if err != nil {
			return InsightReport{}, err
		}
		if err := d.checkRows(dataset, len(sales)); err != nil {
			return InsightReport{}, err
		}
		features, err := d.reader.WalmartFeatures(ctx)
		if err != nil {
			return InsightReport{}, err
		}
		summary := insights.SummarizeWalmart(sales, features, d.limits.TopK)
		return InsightReport{Dataset: dataset, Walmart: &summary}, nil
	default:
		return InsightReport{}, fmt.Errorf("%w: no insights for %q", storage.ErrUnknownDataset, dataset)
	}
}

// Stores lists the stores with sales history.
func (d *Dashboard) Stores(ctx context.Context) ([]storage.StoreSummary, error) {
	return d.reader.ListStores(ctx)
}

func (d *Dashboard) sampleLimit(dataset string) int {
	if dataset == "superstore" {
		return d.limits.SuperstoreLimit
	}
	return d.limits.EDALimit
}

func (d *Dashboard) checkRows(dataset string, n int) error {
	if n < d.limits.MinRows {
		return fmt.Errorf("%w: %s has %d rows, need at least %d", ErrNotEnoughData, dataset, n, d.limits.MinRows)
	}
	return nil
}

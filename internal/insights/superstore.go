package insights

import (
	"github.com/shopspring/decimal"

	"retail-demand-optimizer/internal/storage"
)

// DiscountEdges are the discount bins used for the profit analysis.
var DiscountEdges = []float64{-0.01, 0.1, 0.2, 0.3, 1}

// RegionPerformance is a region's total sales and profit.
type RegionPerformance struct {
	Region string          `json:"region"`
	Sales  decimal.Decimal `json:"sales"`
	Profit decimal.Decimal `json:"profit"`
}

// Margin is profit over sales, zero when there are no sales.
func (r RegionPerformance) Margin() decimal.Decimal {
	if r.Sales.IsZero() {
		return decimal.Zero
	}
	return r.Profit.Div(r.Sales)
}

// SuperstoreSummary is the Superstore dashboard panel.
type SuperstoreSummary struct {
	Orders          int                      `json:"orders"`
	TopCategories   []Group[decimal.Decimal] `json:"top_categories"`
	QuantityLeaders []Group[float64]         `json:"quantity_leaders"`
	DiscountProfit  []BucketStat             `json:"discount_profit"`
	Regions         []RegionPerformance      `json:"regions"`
}

// TopCategory returns the best selling category, if any.
func (s SuperstoreSummary) TopCategory() (Group[decimal.Decimal], bool) {
	if len(s.TopCategories) == 0 {
		return Group[decimal.Decimal]{}, false
	}
	return s.TopCategories[0], true
}

// SummarizeSuperstore ranks categories by sales and quantity, averages profit
// per discount range and totals sales and profit per region.
func SummarizeSuperstore(orders []storage.SuperstoreOrder, topK int) SuperstoreSummary {
	byCategory := func(o storage.SuperstoreOrder) string { return o.Category }

	categorySales := GroupMoney(orders, byCategory, func(o storage.SuperstoreOrder) decimal.Decimal { return o.Sales })
	categoryQty := GroupSum(orders, byCategory, func(o storage.SuperstoreOrder) float64 { return float64(o.Quantity) })

	byRegion := func(o storage.SuperstoreOrder) string { return o.Region }
	regionSales := GroupMoney(orders, byRegion, func(o storage.SuperstoreOrder) decimal.Decimal { return o.Sales })
	regionProfit := GroupMoney(orders, byRegion, func(o storage.SuperstoreOrder) decimal.Decimal { return o.Profit })

	regions := make([]RegionPerformance, len(regionSales))
	for i := range regionSales {
		regions[i] = RegionPerformance{
			Region: regionSales[i].Key,
			Sales:  regionSales[i].Value,
			Profit: regionProfit[i].Value,
		}
	}

	return SuperstoreSummary{
		Orders:          len(orders),
		TopCategories:   TopK(categorySales, topK, CompareMoney),
		QuantityLeaders: TopK(categoryQty, topK, CompareFloat),
		DiscountProfit: BucketMean(orders, DiscountEdges,
			func(o storage.SuperstoreOrder) float64 { return o.Discount },
			func(o storage.SuperstoreOrder) float64 { return o.Profit.InexactFloat64() },
		),
		Regions: regions,
	}
}

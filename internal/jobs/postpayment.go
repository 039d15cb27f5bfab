package jobs

import (
	"context"

	"lunari-cart/internal/catalog"
	"lunari-cart/internal/loyalty"
	"lunari-cart/internal/order"
)

const (
	JobStockReduction = "stock_reduction"
	JobPointsAward    = "points_award"
)

// StockReduction builds the job that deducts the order's line quantities
// from inventory. The order number keys the deduction so replays are
// no-ops on the inventory side.
func StockReduction(client catalog.Client, o *order.Order) Job {
	items := make([]catalog.StockItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, catalog.StockItem{ServiceID: it.ServiceID, Quantity: it.Quantity})
	}
	return Job{
		Name:    JobStockReduction,
		OrderID: o.ID,
		Run: func(ctx context.Context) error {
			return client.ReduceStock(ctx, o.Number, items)
		},
	}
}

// PointsAward builds the job that credits the buyer's loyalty points for
// a paid order. Orders too small to earn points produce a no-op job.
func PointsAward(client loyalty.Client, o *order.Order) Job {
	return Job{
		Name:    JobPointsAward,
		OrderID: o.ID,
		Run: func(ctx context.Context) error {
			if o.PointsEarned <= 0 {
				return nil
			}
			return client.AwardPoints(ctx, o.OwnerID, o.PointsEarned, o.Number)
		},
	}
}

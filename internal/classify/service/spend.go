package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smallbiznis/viptagger/internal/classify/domain"
	"github.com/smallbiznis/viptagger/internal/config"
	"github.com/smallbiznis/viptagger/internal/shopify"
)

// ComputeLifetimeSpend sums total_price over orders whose financial status
// indicates collected payment. Malformed or missing prices are a hard error,
// never a silent zero.
func ComputeLifetimeSpend(orders []shopify.Order, policy config.Policy) (float64, error) {
	var total float64
	for _, order := range orders {
		if !policy.IsCollected(order.FinancialStatus) {
			continue
		}
		price := strings.TrimSpace(order.TotalPrice)
		if price == "" {
			return 0, fmt.Errorf("order %d: %w: total_price missing", order.ID, domain.ErrInvalidAmount)
		}
		amount, err := strconv.ParseFloat(price, 64)
		if err != nil {
			return 0, fmt.Errorf("order %d: %w: total_price %q", order.ID, domain.ErrInvalidAmount, order.TotalPrice)
		}
		total += amount
	}
	return total, nil
}

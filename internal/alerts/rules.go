package alerts

import "stockwatch/internal/models"

// Evaluate picks at most one alert kind for a quantity change. Out of stock
// wins over low stock, which wins over restock. Low stock only fires while
// the quantity is falling, so a product sitting under the threshold does not
// re-alert on every unrelated update.
func Evaluate(previous, current, threshold int, restockEnabled bool) (models.AlertKind, bool) {
	switch {
	case current == 0 && previous > 0:
		return models.AlertOutOfStock, true
	case current > 0 && current <= threshold && previous > current:
		return models.AlertLowStock, true
	case previous == 0 && current > 0 && restockEnabled:
		return models.AlertRestock, true
	}
	return "", false
}

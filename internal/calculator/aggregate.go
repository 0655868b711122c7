package calculator

import "github.com/mmynk/godutch/internal/models"

// GroupByName buckets items by their exact name. Items keep their relative
// order inside a bucket. No normalization is applied to names.
func GroupByName(items []models.Item) map[string][]models.Item {
	groups := make(map[string][]models.Item)
	for _, item := range items {
		groups[item.Name] = append(groups[item.Name], item)
	}
	return groups
}

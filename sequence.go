package pdfdocx

import "sort"

// SequenceItems orders content items top-to-bottom, then left-to-right.
// The sort is stable: items at identical positions keep extraction order.
// The input slice is not modified.
func SequenceItems(items []ContentItem) []ContentItem {
	sorted := make([]ContentItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		topI, leftI := sorted[i].Position()
		topJ, leftJ := sorted[j].Position()
		if topI != topJ {
			return topI < topJ
		}
		return leftI < leftJ
	})
	return sorted
}

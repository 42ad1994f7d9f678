package conversation

// Size counts all nodes in the forest.
func Size(nodes []*Node) int {
	size := 0
	for _, n := range nodes {
		size += 1 + Size(n.Replies)
	}
	return size
}

// SizeAtLeast counts nodes with score >= threshold. A node below the
// threshold hides its whole subtree, matching the cropped view.
func SizeAtLeast(nodes []*Node, threshold int) int {
	size := 0
	for _, n := range nodes {
		if n.Score < threshold {
			continue
		}
		size += 1 + SizeAtLeast(n.Replies, threshold)
	}
	return size
}

// FindMinScoreThreshold searches for the minimal score threshold whose
// cropped size equals desired. The bracketing interval [low, high] is first
// expanded outward in growing steps until it straddles the target, then
// bisected. When no threshold hits desired exactly, the search converges on
// the smallest threshold whose size is <= desired: under-filling is
// preferred over over-filling.
func FindMinScoreThreshold(nodes []*Node, desired, low, high int) int {
	mid := (low + high) / 2
	for SizeAtLeast(nodes, low) < desired {
		low -= max(mid-low, 5)
	}
	for SizeAtLeast(nodes, high) > desired {
		high += max(high-mid, 5)
	}
	for low <= high {
		mid = (low + high) / 2
		size := SizeAtLeast(nodes, mid)
		switch {
		case size == desired:
			return mid
		case size < desired:
			high = mid - 1
		default:
			low = mid + 1
		}
	}
	return low
}

// Crop rebuilds the forest keeping only nodes with score >= threshold,
// preserving structure and ordering.
func Crop(nodes []*Node, threshold int) []*Node {
	var out []*Node
	for _, n := range nodes {
		if n.Score < threshold {
			continue
		}
		out = append(out, &Node{
			ContentID: n.ContentID,
			Author:    n.Author,
			Text:      n.Text,
			Score:     n.Score,
			Replies:   Crop(n.Replies, threshold),
		})
	}
	return out
}

// CropToSize crops the forest to at most maxSize nodes. A forest already
// under the budget is returned untouched with a nil threshold; otherwise
// the chosen threshold is returned alongside the cropped forest.
func CropToSize(nodes []*Node, maxSize int) ([]*Node, *int) {
	if Size(nodes) < maxSize {
		return nodes, nil
	}
	threshold := FindMinScoreThreshold(nodes, maxSize, 1, 500)
	return Crop(nodes, threshold), &threshold
}

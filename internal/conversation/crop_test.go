package conversation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, score int, replies ...*Node) *Node {
	return &Node{ContentID: id, Author: "u_" + id, Text: "t", Score: score, Replies: replies}
}

func ids(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.ContentID)
		out = append(out, ids(n.Replies)...)
	}
	return out
}

func TestSize(t *testing.T) {
	forest := []*Node{
		node("a", 5, node("b", 1)),
		node("c", 5),
	}
	assert.Equal(t, 3, Size(forest))
	assert.Equal(t, 0, Size(nil))
}

func TestSizeAtLeast_BelowThresholdHidesSubtree(t *testing.T) {
	// High-scoring child under a low-scoring parent is invisible.
	forest := []*Node{node("a", 1, node("b", 100))}
	assert.Equal(t, 0, SizeAtLeast(forest, 2))
	assert.Equal(t, 2, SizeAtLeast(forest, 1))
}

func TestCropToSize_KeepsHighestScoringNodes(t *testing.T) {
	// Scores [5, 5, 1] under a root post; budget 2 must keep the two
	// score-5 replies and drop the score-1 leaf, preserving structure.
	forest := []*Node{
		node("b", 5, node("d", 1)),
		node("c", 5),
	}

	cropped, threshold := CropToSize(forest, 2)
	require.NotNil(t, threshold)

	assert.Equal(t, 2, Size(cropped))
	assert.Equal(t, []string{"b", "c"}, ids(cropped))

	// Parent/child relationships and order preserved.
	want := []*Node{
		{ContentID: "b", Author: "u_b", Text: "t", Score: 5},
		{ContentID: "c", Author: "u_c", Text: "t", Score: 5},
	}
	assert.Empty(t, cmp.Diff(want, cropped))

	// Original forest untouched.
	assert.Equal(t, 3, Size(forest))
}

func TestCropToSize_UnderBudgetSkipsCropping(t *testing.T) {
	forest := []*Node{node("a", -10, node("b", -20))}

	cropped, threshold := CropToSize(forest, 20)
	assert.Nil(t, threshold)
	assert.Equal(t, []string{"a", "b"}, ids(cropped))
}

func TestCropToSize_EmptyForest(t *testing.T) {
	cropped, threshold := CropToSize(nil, 20)
	assert.Nil(t, threshold)
	assert.Empty(t, cropped)
}

func TestFindMinScoreThreshold(t *testing.T) {
	t.Run("all scores equal underfills to zero rather than overfilling", func(t *testing.T) {
		forest := []*Node{node("a", 7), node("b", 7), node("c", 7), node("d", 7)}

		th := FindMinScoreThreshold(forest, 2, 1, 500)
		assert.LessOrEqual(t, SizeAtLeast(forest, th), 2)
		// Every node ties; the only achievable sizes are 4 and 0.
		assert.Equal(t, 0, SizeAtLeast(forest, th))
	})

	t.Run("strictly decreasing scores hit the budget exactly", func(t *testing.T) {
		forest := []*Node{
			node("a", 40, node("b", 30, node("c", 20, node("d", 10)))),
		}

		th := FindMinScoreThreshold(forest, 2, 1, 500)
		assert.Equal(t, 2, SizeAtLeast(forest, th))
		assert.Equal(t, []string{"a", "b"}, ids(Crop(forest, th)))
	})

	t.Run("ties at the cutoff keep all tied nodes or none", func(t *testing.T) {
		forest := []*Node{
			node("a", 10),
			node("b", 5),
			node("c", 5),
			node("d", 1),
		}

		// Budget 2 cannot be hit exactly: thresholds yield 4, 3, or 1.
		th := FindMinScoreThreshold(forest, 2, 1, 500)
		assert.LessOrEqual(t, SizeAtLeast(forest, th), 2)
		assert.Equal(t, []string{"a"}, ids(Crop(forest, th)))
	})

	t.Run("scores outside the initial bracket are still found", func(t *testing.T) {
		forest := []*Node{node("a", 2000), node("b", 1500), node("c", -50)}

		th := FindMinScoreThreshold(forest, 2, 1, 500)
		assert.Equal(t, 2, SizeAtLeast(forest, th))
		assert.Equal(t, []string{"a", "b"}, ids(Crop(forest, th)))
	})
}

func TestCropToSize_SpecExample(t *testing.T) {
	// Root has two score-5 children, one of which has a score-1 child;
	// with the root post excluded the reply forest scores are [5, 5, 1].
	// Budget 2: retained nodes must be the highest-scoring ones with
	// structure preserved.
	forest := []*Node{
		node("r1", 5, node("r3", 1)),
		node("r2", 5),
	}

	cropped, threshold := CropToSize(forest, 2)
	require.NotNil(t, threshold)
	assert.Equal(t, 2, Size(cropped))
	assert.Equal(t, []string{"r1", "r2"}, ids(cropped))
	require.Len(t, cropped, 2)
	assert.Empty(t, cropped[0].Replies)
}

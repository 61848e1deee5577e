// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pairer

import (
	"sort"

	"github.com/pdiddy/stackpair/pkg/types"
)

// LimitPerQuestion keeps at most n pairs per parent question, highest
// score first; equal scores keep the earlier pair. The retained pairs stay
// in their original relative order. n <= 0 keeps everything.
func LimitPerQuestion(pairs []types.Pair, n int) []types.Pair {
	if n <= 0 {
		return pairs
	}

	byParent := make(map[string][]int)
	for i, p := range pairs {
		byParent[p.ParentID] = append(byParent[p.ParentID], i)
	}

	keep := make([]bool, len(pairs))
	for _, idx := range byParent {
		sort.SliceStable(idx, func(a, b int) bool {
			return pairs[idx[a]].Score > pairs[idx[b]].Score
		})
		if len(idx) > n {
			idx = idx[:n]
		}
		for _, i := range idx {
			keep[i] = true
		}
	}

	kept := make([]types.Pair, 0, len(pairs))
	for i, p := range pairs {
		if keep[i] {
			kept = append(kept, p)
		}
	}
	return kept
}

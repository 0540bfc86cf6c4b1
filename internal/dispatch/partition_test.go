package dispatch_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randomizedcoder/simloop/internal/dispatch"
)

type span struct{ from, to int }

func partitions(n, w int) []span {
	out := make([]span, w)
	for k := 0; k < w; k++ {
		from, to := dispatch.Partition(n, w, k)
		out[k] = span{from, to}
	}
	return out
}

func TestPartition_Examples(t *testing.T) {
	for _, tc := range []struct {
		n, w int
		want []span
	}{
		{0, 4, []span{{0, 0}, {0, 0}, {0, 0}, {0, 0}}},
		{1, 4, []span{{0, 1}, {0, 0}, {0, 0}, {0, 0}}},
		{3, 4, []span{{0, 1}, {1, 2}, {2, 3}, {0, 0}}},
		{4, 4, []span{{0, 1}, {1, 2}, {2, 3}, {3, 4}}},
		{20, 4, []span{{0, 5}, {5, 10}, {10, 15}, {15, 20}}},
		{23, 4, []span{{0, 5}, {5, 10}, {10, 15}, {15, 23}}},
		{7, 3, []span{{0, 2}, {2, 4}, {4, 7}}},
		{5, 1, []span{{0, 5}}},
		{0, 1, []span{{0, 0}}},
	} {
		t.Run(fmt.Sprintf("n=%d,w=%d", tc.n, tc.w), func(t *testing.T) {
			assert.Equal(t, tc.want, partitions(tc.n, tc.w))
		})
	}
}

func TestPartition_CoversEachIndexOnce(t *testing.T) {
	for w := 1; w <= 8; w++ {
		for n := 0; n <= 50; n++ {
			seen := make([]int, n)
			for _, p := range partitions(n, w) {
				assert.LessOrEqual(t, p.from, p.to, "n=%d w=%d: inverted range", n, w)
				for i := p.from; i < p.to; i++ {
					seen[i]++
				}
			}
			for i, c := range seen {
				assert.Equal(t, 1, c, "n=%d w=%d: index %d covered %d times", n, w, i, c)
			}
		}
	}
}

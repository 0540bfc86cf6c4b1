package dispatch

// Partition returns the half-open index range [from, to) that worker k of w
// processes for a batch of n items.
//
// With fewer items than workers, the first n workers take one item each and
// the rest get an empty range. Otherwise each worker takes n/w consecutive
// items and the last worker also takes the remainder. Either way the ranges
// are disjoint and cover [0, n).
func Partition(n, w, k int) (from, to int) {
	if n < w {
		if k < n {
			return k, k + 1
		}
		return 0, 0
	}
	section := n / w
	from = k * section
	if k == w-1 {
		return from, n
	}
	return from, from + section
}

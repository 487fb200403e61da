package codec

import (
	"math"
	"math/bits"
)

// Binomial returns C(n, k), reporting false when the result does not fit in
// an int64. C(n, k) is 0 for k < 0 or k > n.
func Binomial(n, k int64) (int64, bool) {
	if k < 0 || n < 0 || k > n {
		return 0, true
	}
	if k > n-k {
		k = n - k
	}
	var result uint64 = 1
	for i := int64(1); i <= k; i++ {
		// result*(n-k+i)/i == C(n-k+i, i), always an integer.
		hi, lo := bits.Mul64(result, uint64(n-k+i))
		if hi >= uint64(i) {
			return 0, false
		}
		q, _ := bits.Div64(hi, lo, uint64(i))
		if q > math.MaxInt64 {
			return 0, false
		}
		result = q
	}
	return int64(result), true
}

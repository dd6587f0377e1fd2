package rfi

// The scale-invariant rank (SIR) operator dilates flagged runs
// proportionally to their length. A sample stays unflagged only if it
// is contained in some interval whose unflagged fraction exceeds eta;
// equivalently, sample i becomes flagged iff there is an interval
// [a,b] containing i whose flagged count is at least
// (1-eta)*(b-a+1).
//
// The implementation assigns each sample a credit of eta (flagged) or
// eta-1 (unflagged) and flags sample i iff the maximum credit sum over
// intervals containing i is >= 0, computed in O(n) from the prefix sum
// with a forward running minimum and a backward running maximum.

// sirOperate applies the operator in place to a single strip.
func sirOperate(flags []bool, eta float64) {
	n := len(flags)
	if n == 0 {
		return
	}
	// prefix[i] = sum of credits of samples [0, i)
	prefix := make([]float64, n+1)
	for i, f := range flags {
		credit := eta - 1.0
		if f {
			credit = eta
		}
		prefix[i+1] = prefix[i] + credit
	}
	// minLeft[i] = min of prefix[0..i], the best left boundary for an
	// interval ending at or after sample i.
	minLeft := make([]float64, n+1)
	minLeft[0] = prefix[0]
	for i := 1; i <= n; i++ {
		minLeft[i] = minLeft[i-1]
		if prefix[i] < minLeft[i] {
			minLeft[i] = prefix[i]
		}
	}
	// maxRight[i] = max of prefix[i..n], the best right boundary for an
	// interval starting at or before sample i.
	maxRight := make([]float64, n+1)
	maxRight[n] = prefix[n]
	for i := n - 1; i >= 0; i-- {
		maxRight[i] = maxRight[i+1]
		if prefix[i] > maxRight[i] {
			maxRight[i] = prefix[i]
		}
	}
	for i := 0; i < n; i++ {
		// Interval [a, b] containing i has credit sum
		// prefix[b+1] - prefix[a] with a <= i <= b.
		if maxRight[i+1]-minLeft[i] >= 0 {
			flags[i] = true
		}
	}
}

// SIROperateHorizontally applies the SIR operator to every row of the
// mask in place.
func SIROperateHorizontally(mask *Mask, eta float64) {
	row := make([]bool, mask.Width())
	for y := 0; y < mask.Height(); y++ {
		for x := range row {
			row[x] = mask.Value(x, y)
		}
		sirOperate(row, eta)
		for x := range row {
			mask.SetValue(x, y, row[x])
		}
	}
}

// SIROperateVertically applies the SIR operator to every column of the
// mask in place.
func SIROperateVertically(mask *Mask, eta float64) {
	col := make([]bool, mask.Height())
	for x := 0; x < mask.Width(); x++ {
		for y := range col {
			col[y] = mask.Value(x, y)
		}
		sirOperate(col, eta)
		for y := range col {
			mask.SetValue(x, y, col[y])
		}
	}
}

package textdiff

import (
	"errors"
	"sort"
)

// ErrOverlap reports that two edit scripts touch intersecting regions of the
// base text and cannot be combined automatically.
var ErrOverlap = errors.New("textdiff: overlapping edits")

// Merge combines two edit scripts computed against the same base text.
//
// If the scripts' old ranges overlap, ErrOverlap is returned. Otherwise both
// scripts are applied to base in descending order of range start, so earlier
// offsets stay valid while later regions are rewritten. On equal starts the
// wider op goes first (an insert at the same point must not shift a
// neighboring replace), then ops from b, which keeps the result
// deterministic.
//
// Both scripts must have been computed with base as the old text. Merge
// verifies this precondition op by op and fails with ErrBaseMismatch when it
// does not hold; callers must never mix bases.
func Merge(base string, a, b Result) (string, error) {
	for _, op := range a.Ops {
		if err := checkOp(base, op); err != nil {
			return "", err
		}
	}
	for _, op := range b.Ops {
		if err := checkOp(base, op); err != nil {
			return "", err
		}
	}

	if Overlaps(a.OldRanges(), b.OldRanges()) {
		return "", ErrOverlap
	}

	type sided struct {
		op   Op
		side int // 0 = a, 1 = b
	}
	combined := make([]sided, 0, len(a.Ops)+len(b.Ops))
	for _, op := range a.Ops {
		combined = append(combined, sided{op: op, side: 0})
	}
	for _, op := range b.Ops {
		combined = append(combined, sided{op: op, side: 1})
	}

	sort.SliceStable(combined, func(i, j int) bool {
		oi, oj := combined[i].op.OldRange, combined[j].op.OldRange
		if oi.Start != oj.Start {
			return oi.Start > oj.Start
		}
		if oi.End != oj.End {
			return oi.End > oj.End
		}
		return combined[i].side > combined[j].side
	})

	merged := base
	for _, s := range combined {
		merged = merged[:s.op.OldRange.Start] + s.op.NewText + merged[s.op.OldRange.End:]
	}
	return merged, nil
}

// Package textdiff implements the text comparison core used by sync:
// a Myers-family diff producing a minimal edit script with byte-offset
// ranges, an interval overlap check, and a three-way merge of two edit
// scripts over a shared base text.
package textdiff

import (
	"errors"
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ErrBaseMismatch reports that an edit script was applied to a text it was
// not computed against. Reaching it from the sync path is a programming
// error; it must never be swallowed.
var ErrBaseMismatch = errors.New("textdiff: edit script does not match base text")

// OpKind classifies a single edit operation.
type OpKind string

const (
	OpReplace OpKind = "replace"
	OpInsert  OpKind = "insert"
	OpDelete  OpKind = "delete"
)

// Interval is a half-open byte-offset range [Start, End).
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect.
// Touching intervals (a.End == b.Start) do not overlap, so adjacent
// independent edits stay mergeable.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Op is a single edit. Equal regions never appear in an edit script.
// OldRange indexes the old text, NewRange the new text; for inserts the old
// range is empty, for deletes the new range is empty.
type Op struct {
	Kind     OpKind   `json:"op"`
	OldText  string   `json:"old_text,omitempty"`
	NewText  string   `json:"new_text,omitempty"`
	OldRange Interval `json:"old_range"`
	NewRange Interval `json:"new_range"`
}

// Result is an ordered edit script plus a similarity ratio in [0,1].
// Applying Ops in order to the old text reproduces the new text exactly.
type Result struct {
	Ops        []Op    `json:"ops"`
	Similarity float64 `json:"similarity"`
}

// OldRanges returns the edited regions of the old text, in script order.
func (r Result) OldRanges() []Interval {
	ranges := make([]Interval, 0, len(r.Ops))
	for _, op := range r.Ops {
		ranges = append(ranges, op.OldRange)
	}
	return ranges
}

// Diff computes a minimal edit script transforming old into new.
//
// The underlying algorithm is diffmatchpatch's Myers diff; its run list is
// folded into replace/insert/delete ops with byte-offset ranges. The
// similarity ratio is 2*matching/(len(old)+len(new)); two empty strings
// count as identical.
func Diff(old, new string) Result {
	if old == new {
		return Result{Similarity: 1.0}
	}

	dmp := diffmatchpatch.New()
	runs := dmp.DiffMain(old, new, false)

	var (
		ops      []Op
		matching int
		oldPos   int
		newPos   int

		// pending delete/insert runs between equal regions
		delText string
		insText string
		delFrom int
		insFrom int
	)

	flush := func() {
		switch {
		case delText != "" && insText != "":
			ops = append(ops, Op{
				Kind:     OpReplace,
				OldText:  delText,
				NewText:  insText,
				OldRange: Interval{Start: delFrom, End: delFrom + len(delText)},
				NewRange: Interval{Start: insFrom, End: insFrom + len(insText)},
			})
		case delText != "":
			ops = append(ops, Op{
				Kind:     OpDelete,
				OldText:  delText,
				OldRange: Interval{Start: delFrom, End: delFrom + len(delText)},
				NewRange: Interval{Start: insFrom, End: insFrom},
			})
		case insText != "":
			ops = append(ops, Op{
				Kind:     OpInsert,
				NewText:  insText,
				OldRange: Interval{Start: delFrom, End: delFrom},
				NewRange: Interval{Start: insFrom, End: insFrom + len(insText)},
			})
		}
		delText, insText = "", ""
	}

	for _, run := range runs {
		switch run.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			matching += len(run.Text)
			oldPos += len(run.Text)
			newPos += len(run.Text)
			delFrom, insFrom = oldPos, newPos
		case diffmatchpatch.DiffDelete:
			if delText == "" && insText == "" {
				delFrom, insFrom = oldPos, newPos
			}
			delText += run.Text
			oldPos += len(run.Text)
		case diffmatchpatch.DiffInsert:
			if delText == "" && insText == "" {
				delFrom, insFrom = oldPos, newPos
			}
			insText += run.Text
			newPos += len(run.Text)
		}
	}
	flush()

	total := len(old) + len(new)
	similarity := 0.0
	if total > 0 {
		similarity = 2 * float64(matching) / float64(total)
	}

	return Result{Ops: ops, Similarity: similarity}
}

// Apply replays an edit script over old and returns the resulting text.
// Every op's old text is checked against its range before use; a mismatch
// yields ErrBaseMismatch.
func Apply(old string, ops []Op) (string, error) {
	var out []byte
	pos := 0
	for _, op := range ops {
		if err := checkOp(old, op); err != nil {
			return "", err
		}
		if op.OldRange.Start < pos {
			return "", fmt.Errorf("%w: op at %d out of order", ErrBaseMismatch, op.OldRange.Start)
		}
		out = append(out, old[pos:op.OldRange.Start]...)
		out = append(out, op.NewText...)
		pos = op.OldRange.End
	}
	out = append(out, old[pos:]...)
	return string(out), nil
}

func checkOp(base string, op Op) error {
	if op.OldRange.Start < 0 || op.OldRange.End > len(base) || op.OldRange.Start > op.OldRange.End {
		return fmt.Errorf("%w: range [%d,%d) outside text of length %d",
			ErrBaseMismatch, op.OldRange.Start, op.OldRange.End, len(base))
	}
	if base[op.OldRange.Start:op.OldRange.End] != op.OldText {
		return fmt.Errorf("%w: text at [%d,%d) differs from script",
			ErrBaseMismatch, op.OldRange.Start, op.OldRange.End)
	}
	return nil
}

// Package diff computes line-level edit scripts between text blobs and
// path-level differences between flattened trees.
package diff

import (
	"errors"
	"strings"
)

// ErrDiffFailed is returned when the shortest-edit search exhausts its
// bound of len(a)+len(b) without reaching the end of both inputs.
var ErrDiffFailed = errors.New("diff failed")

// OpType classifies a line in an edit script.
type OpType int

const (
	Equal  OpType = iota // Line is unchanged between a and b.
	Insert               // Line is present in b only.
	Delete               // Line is present in a only.
)

func (t OpType) String() string {
	switch t {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Op is one step of an edit script. OldLine and NewLine are 1-based and
// zero when the line does not exist on that side.
type Op struct {
	Type    OpType
	Line    string
	OldLine int
	NewLine int
}

// Change is a run of consecutive non-equal operations. A start is the
// 1-based line where the run begins on that side; for a pure insertion
// OldLines is zero and OldStart is the line the insertion precedes.
type Change struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
}

// LineDiff bundles the edit distance with its script and grouped changes.
type LineDiff struct {
	Distance int
	Ops      []Op
	Changes  []Change
}

// SplitLines splits text on "\n". A trailing newline yields a final empty
// line, so "a\n" and "a" differ.
func SplitLines(s string) []string {
	return strings.Split(s, "\n")
}

// EditDistance returns the length D of the shortest edit script turning a
// into b, using the O((N+M)D) greedy forward search.
func EditDistance(a, b []string) (int, error) {
	d, _, err := search(a, b, false)
	return d, err
}

// EditScript returns the full shortest edit script from a to b.
func EditScript(a, b []string) ([]Op, error) {
	d, trace, err := search(a, b, true)
	if err != nil {
		return nil, err
	}
	ops := backtrack(trace, a, b, d)
	numberLines(ops)
	return ops, nil
}

// Lines diffs two texts split on "\n".
func Lines(a, b string) (*LineDiff, error) {
	ops, err := EditScript(SplitLines(a), SplitLines(b))
	if err != nil {
		return nil, err
	}
	out := &LineDiff{Ops: ops, Changes: Changes(ops)}
	for _, op := range ops {
		if op.Type != Equal {
			out.Distance++
		}
	}
	return out, nil
}

// search runs the forward pass. When keepTrace is set, trace[d] holds the
// furthest-reaching x per diagonal after step d.
func search(a, b []string, keepTrace bool) (int, [][]int, error) {
	n := len(a)
	m := len(b)
	max := n + m
	if max == 0 {
		return 0, [][]int{{0}}, nil
	}
	size := 2*max + 1
	v := make([]int, size)
	var trace [][]int

	for d := 0; d <= max; d++ {
		for k := -d; k <= d; k += 2 {
			idx := k + max
			var x int
			if k == -d || (k != d && v[idx-1] < v[idx+1]) {
				x = v[idx+1] // move down (insert)
			} else {
				x = v[idx-1] + 1 // move right (delete)
			}
			y := x - k

			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[idx] = x

			if x >= n && y >= m {
				if keepTrace {
					trace = append(trace, append([]int(nil), v...))
				}
				return d, trace, nil
			}
		}
		if keepTrace {
			trace = append(trace, append([]int(nil), v...))
		}
	}
	// unreachable: some path closes by d = n+m; kept as a guard
	return 0, nil, ErrDiffFailed
}

// backtrack reconstructs the edit script from the trace of v snapshots.
func backtrack(trace [][]int, a, b []string, dFinal int) []Op {
	n := len(a)
	m := len(b)
	max := n + m

	x := n
	y := m
	var ops []Op

	for d := dFinal; d > 0; d-- {
		k := x - y
		vPrev := trace[d-1]

		var prevK int
		if k == -d || (k != d && vPrev[k-1+max] < vPrev[k+1+max]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := vPrev[prevK+max]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			ops = append(ops, Op{Type: Equal, Line: a[x]})
		}
		if k == prevK+1 {
			x--
			ops = append(ops, Op{Type: Delete, Line: a[x]})
		} else {
			y--
			ops = append(ops, Op{Type: Insert, Line: b[y]})
		}
	}
	for x > 0 && y > 0 {
		x--
		y--
		ops = append(ops, Op{Type: Equal, Line: a[x]})
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}

func numberLines(ops []Op) {
	oldLine, newLine := 0, 0
	for i := range ops {
		switch ops[i].Type {
		case Equal:
			oldLine++
			newLine++
			ops[i].OldLine, ops[i].NewLine = oldLine, newLine
		case Delete:
			oldLine++
			ops[i].OldLine = oldLine
		case Insert:
			newLine++
			ops[i].NewLine = newLine
		}
	}
}

// Changes groups consecutive insertions and deletions.
func Changes(ops []Op) []Change {
	var out []Change
	oldPos, newPos := 0, 0
	var cur *Change
	for _, op := range ops {
		if op.Type == Equal {
			if cur != nil {
				out = append(out, *cur)
				cur = nil
			}
			oldPos++
			newPos++
			continue
		}
		if cur == nil {
			cur = &Change{OldStart: oldPos + 1, NewStart: newPos + 1}
		}
		if op.Type == Delete {
			cur.OldLines++
			oldPos++
		} else {
			cur.NewLines++
			newPos++
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

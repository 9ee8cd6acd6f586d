package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// FormatTreeDiff writes a sectioned summary of d.
//
// Output format:
//
//	Added files:
//	  + path
//	Deleted files:
//	  - path
//	Modified files:
//	  * path
//	Conflicting files:
//	  ! path
//	    <left> <right>
func FormatTreeDiff(w io.Writer, d *TreeDiff) error {
	var b strings.Builder
	section := func(title, marker string, paths []string) {
		if len(paths) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", title)
		for _, p := range paths {
			fmt.Fprintf(&b, "  %s %s\n", marker, p)
		}
	}
	section("Added files", "+", d.Added)
	section("Deleted files", "-", d.Deleted)
	section("Modified files", "*", d.Modified)
	if len(d.Conflicts) > 0 {
		b.WriteString("Conflicting files:\n")
		for _, c := range d.Conflicts {
			fmt.Fprintf(&b, "  ! %s\n    %s %s\n", c.Path, c.Left, c.Right)
		}
	}
	if d.Empty() {
		b.WriteString("No differences found.\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Unified renders a unified diff of two texts. Identical inputs render as
// the empty string.
func Unified(fromName, toName, a, b string, context int) (string, error) {
	if a == b {
		return "", nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  context,
	}
	out, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("unified diff: %w", err)
	}
	return out, nil
}

// FormatChanges writes one "@@ -a,b +c,d @@" header per change followed by
// its removed and added lines.
func FormatChanges(w io.Writer, ld *LineDiff) error {
	var b strings.Builder
	i := 0
	for _, c := range ld.Changes {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", c.OldStart, c.OldLines, c.NewStart, c.NewLines)
		for i < len(ld.Ops) && ld.Ops[i].Type == Equal {
			i++
		}
		for i < len(ld.Ops) && ld.Ops[i].Type != Equal {
			op := ld.Ops[i]
			if op.Type == Delete {
				fmt.Fprintf(&b, "-%s\n", op.Line)
			} else {
				fmt.Fprintf(&b, "+%s\n", op.Line)
			}
			i++
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// DiffResult represents the difference between original and formatted source
type DiffResult struct {
	Original  string
	Formatted string
	Changed   bool
}

// Diff compares original and formatted source
func Diff(original, formatted string) *DiffResult {
	return &DiffResult{
		Original:  original,
		Formatted: formatted,
		Changed:   original != formatted,
	}
}

// lineOp is one line of an edit script
type lineOp struct {
	kind byte // ' ', '-' or '+'
	text string
}

// editScript computes a line diff through the longest common subsequence
func (d *DiffResult) editScript() []lineOp {
	a := splitLines(d.Original)
	b := splitLines(d.Formatted)

	// lcs[i][j] is the LCS length of a[i:] and b[j:]
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var ops []lineOp
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			ops = append(ops, lineOp{' ', a[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			ops = append(ops, lineOp{'-', a[i]})
			i++
		default:
			ops = append(ops, lineOp{'+', b[j]})
			j++
		}
	}
	for ; i < len(a); i++ {
		ops = append(ops, lineOp{'-', a[i]})
	}
	for ; j < len(b); j++ {
		ops = append(ops, lineOp{'+', b[j]})
	}
	return ops
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// String returns a human-readable diff with color highlighting
func (d *DiffResult) String() string {
	if !d.Changed {
		return color.GreenString("No changes needed")
	}

	var buf bytes.Buffer
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	for _, op := range d.editScript() {
		switch op.kind {
		case '-':
			red.Fprintf(&buf, "- %s\n", op.text)
		case '+':
			green.Fprintf(&buf, "+ %s\n", op.text)
		}
	}

	return buf.String()
}

// UnifiedDiff returns the changes in unified diff format, one hunk per run
// of changed lines
func (d *DiffResult) UnifiedDiff(filename string) string {
	if !d.Changed {
		return ""
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- a/%s\n", filename)
	fmt.Fprintf(&buf, "+++ b/%s\n", filename)

	ops := d.editScript()
	oldLine, newLine := 1, 1
	for k := 0; k < len(ops); {
		if ops[k].kind == ' ' {
			oldLine++
			newLine++
			k++
			continue
		}

		end := k
		removed, added := 0, 0
		for end < len(ops) && ops[end].kind != ' ' {
			if ops[end].kind == '-' {
				removed++
			} else {
				added++
			}
			end++
		}

		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n", oldLine, removed, newLine, added)
		for _, op := range ops[k:end] {
			fmt.Fprintf(&buf, "%c%s\n", op.kind, op.text)
		}
		oldLine += removed
		newLine += added
		k = end
	}

	return buf.String()
}

// Stats returns statistics about the changes
func (d *DiffResult) Stats() string {
	if !d.Changed {
		return "No changes"
	}

	added, removed := 0, 0
	for _, op := range d.editScript() {
		switch op.kind {
		case '+':
			added++
		case '-':
			removed++
		}
	}

	return fmt.Sprintf("%d lines added, %d removed", added, removed)
}

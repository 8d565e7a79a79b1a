package diff

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Options controls unified diff rendering.
type Options struct {
	Color bool
}

var (
	headerOld = color.New(color.Bold, color.FgRed)
	headerNew = color.New(color.Bold, color.FgGreen)
	hunkColor = color.New(color.FgCyan)
	addColor  = color.New(color.FgGreen)
	delColor  = color.New(color.FgRed)
)

// Unified renders a FileDiff in unified format: file headers, hunk
// range lines, and prefixed content lines.
func Unified(d *FileDiff, opts Options) string {
	var b strings.Builder

	if opts.Color {
		b.WriteString(headerOld.Sprintf("--- %s", d.OldPath))
		b.WriteByte('\n')
		b.WriteString(headerNew.Sprintf("+++ %s", d.NewPath))
		b.WriteByte('\n')
	} else {
		fmt.Fprintf(&b, "--- %s\n", d.OldPath)
		fmt.Fprintf(&b, "+++ %s\n", d.NewPath)
	}

	if d.IsBinary {
		b.WriteString("Binary files differ\n")
		return b.String()
	}

	for i := range d.Hunks {
		h := &d.Hunks[i]
		if opts.Color {
			b.WriteString(hunkColor.Sprint(h.Header()))
		} else {
			b.WriteString(h.Header())
		}
		b.WriteByte('\n')

		for _, line := range h.Lines {
			text := string(line.Prefix()) + line.Content
			if opts.Color {
				switch line.Kind {
				case Addition:
					text = addColor.Sprint(text)
				case Deletion:
					text = delColor.Sprint(text)
				}
			}
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Stats renders the one-line change count, e.g.
// "3 insertions(+), 1 deletion(-)".
func Stats(d *FileDiff, useColor bool) string {
	additions := d.Additions()
	deletions := d.Deletions()

	add := fmt.Sprintf("%d insertion%s(+)", additions, plural(additions))
	del := fmt.Sprintf("%d deletion%s(-)", deletions, plural(deletions))
	if useColor {
		add = addColor.Sprint(add)
		del = delColor.Sprint(del)
	}
	return add + ", " + del
}

// Summary renders the short per-file stat bar, e.g. "README.md | 5 +++--".
func Summary(d *FileDiff, useColor bool) string {
	if d.IsBinary {
		return fmt.Sprintf("%s | Binary file", d.NewPath)
	}

	additions := d.Additions()
	deletions := d.Deletions()

	plus := strings.Repeat("+", additions)
	minus := strings.Repeat("-", deletions)
	if useColor {
		plus = addColor.Sprint(plus)
		minus = delColor.Sprint(minus)
	}
	return fmt.Sprintf("%s | %d %s%s", d.NewPath, additions+deletions, plus, minus)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

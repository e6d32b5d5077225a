package blocks

import "strings"

// Convert transforms a markdown-ish summary into an ordered block sequence.
// It never fails: anything that isn't a recognized marker line degrades to
// paragraph text. Consecutive plain lines collapse into a single paragraph,
// split on blank lines.
func Convert(text string) []Block {
	var result []Block
	var paragraph []string

	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		joined := strings.TrimSpace(strings.Join(paragraph, " "))
		if joined != "" {
			result = append(result, Paragraph(joined))
		}
		paragraph = paragraph[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()

		// Longest heading marker first so "### " is never read as "## ".
		case strings.HasPrefix(trimmed, "### "):
			flush()
			result = append(result, Heading(3, trimmed[4:]))
		case strings.HasPrefix(trimmed, "## "):
			flush()
			result = append(result, Heading(2, trimmed[3:]))
		case strings.HasPrefix(trimmed, "# "):
			flush()
			result = append(result, Heading(1, trimmed[2:]))

		// Checkboxes before plain bullets; the marker is case-sensitive.
		case strings.HasPrefix(trimmed, "- [ ] "):
			flush()
			result = append(result, Checkbox(trimmed[6:], false))
		case strings.HasPrefix(trimmed, "- [x] "):
			flush()
			result = append(result, Checkbox(trimmed[6:], true))

		case strings.HasPrefix(trimmed, "- "):
			flush()
			result = append(result, Bullet(trimmed[2:]))

		default:
			paragraph = append(paragraph, trimmed)
		}
	}

	flush()
	return result
}

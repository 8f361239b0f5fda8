package vbspec

import "strings"

// normalizeDocstring strips a common leading indentation from every line,
// normalises CRLF/CR to LF, and leaves trailing whitespace on individual
// lines untouched since expected-output blocks are byte-significant
//.
func normalizeDocstring(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	lines := strings.Split(raw, "\n")

	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if common == -1 || indent < common {
			common = indent
		}
	}
	if common <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, line := range lines {
		if len(line) >= common {
			lines[i] = line[common:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// parseExamples scans a normalised docstring for doctest-style `>>>` entries
//. Each entry's input is the (possibly continued, `...`)
// expression; its expected output is every following line up to the next
// `>>>` prompt or a blank line, preserved byte-for-byte including internal
// whitespace.
func parseExamples(docstring string) []Example {
	lines := strings.Split(docstring, "\n")
	var examples []Example

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, ">>>") {
			i++
			continue
		}

		input := strings.TrimSpace(strings.TrimPrefix(trimmed, ">>>"))
		i++
		for i < len(lines) {
			cont := strings.TrimSpace(lines[i])
			if !strings.HasPrefix(cont, "...") {
				break
			}
			input += "\n" + strings.TrimSpace(strings.TrimPrefix(cont, "..."))
			i++
		}

		var outLines []string
		for i < len(lines) {
			line := lines[i]
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, ">>>") {
				break
			}
			outLines = append(outLines, line)
			i++
		}

		examples = append(examples, Example{
			InputSource:    input,
			ExpectedOutput: strings.Join(outLines, "\n"),
		})
	}

	return examples
}

// HasEllipsis reports whether an expected-output block opts into ellipsis
// matching: any line containing the literal token
// "...".
func HasEllipsis(expected string) bool {
	return strings.Contains(expected, "...")
}

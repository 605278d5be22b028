package robotfile

import "strings"

// row is one physical line split into cells. The first cell is empty when the
// line is indented.
type row struct {
	line  int
	cells []string
}

// statement is a logical line: a row and its "..." continuations.
type statement struct {
	line int
	rows [][]string
}

// cells returns the cells of all rows of the statement.
func (s statement) cells() []string {
	var out []string
	for _, r := range s.rows {
		out = append(out, r...)
	}
	return out
}

// splitRow splits a line into cells on tabs and runs of two or more spaces,
// or on " | " for the pipe-separated format. Comments are dropped.
func splitRow(line string) []string {
	line = strings.TrimRight(line, " \t\r")
	if line == "" {
		return nil
	}

	var cells []string
	if strings.HasPrefix(line, "| ") || line == "|" {
		line = strings.TrimSuffix(strings.TrimPrefix(line, "|"), " |")
		for _, cell := range strings.Split(line, " | ") {
			cells = append(cells, strings.TrimSpace(cell))
		}
	} else {
		cells = splitSpaces(line)
	}

	for i, cell := range cells {
		if strings.HasPrefix(cell, "#") {
			cells = cells[:i]
			break
		}
	}
	if len(cells) == 0 || (len(cells) == 1 && cells[0] == "") {
		return nil
	}
	return cells
}

func splitSpaces(line string) []string {
	var cells []string
	start := 0
	for i := 0; i < len(line); {
		sep := separatorAt(line, i)
		if sep == 0 {
			i++
			continue
		}
		cells = append(cells, line[start:i])
		i += sep
		start = i
	}
	return append(cells, line[start:])
}

// separatorAt returns the length of the cell separator starting at i, or 0.
func separatorAt(line string, i int) int {
	if line[i] != '\t' && (line[i] != ' ' || i+1 >= len(line) || (line[i+1] != ' ' && line[i+1] != '\t')) {
		return 0
	}
	j := i
	for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
		j++
	}
	return j - i
}

// statements groups rows into logical lines.
func statements(rows []row) []statement {
	var out []statement
	for _, r := range rows {
		cells := r.cells
		first := 0
		for first < len(cells) && cells[first] == "" {
			first++
		}
		if first < len(cells) && cells[first] == "..." && len(out) > 0 {
			last := &out[len(out)-1]
			last.rows = append(last.rows, cells[first+1:])
			continue
		}
		out = append(out, statement{line: r.line, rows: [][]string{cells}})
	}
	return out
}

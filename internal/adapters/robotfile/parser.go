// Package robotfile parses resource files into their import namespace and
// documentation.
package robotfile

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
)

// errorType is the type name of problems reported by the parser.
const errorType = "DataError"

type section uint8

const (
	sectionNone section = iota
	sectionSettings
	sectionVariables
	sectionKeywords
	sectionTests
	sectionComments
	sectionUnknown
)

var _ ports.ResourceParser = (*Parser)(nil)

// Parser implements ports.ResourceParser.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseResource implements ports.ResourceParser. Problems in the file are
// reported in the document's Errors; only cancellation fails the call.
func (p *Parser) ParseResource(ctx context.Context, doc *domain.TextDocument) (*domain.ResourceDoc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(doc.Path, doc.Text), nil
}

// Parse parses the text of the resource file at path.
func Parse(path, text string) *domain.ResourceDoc {
	p := &parse{
		doc: &domain.ResourceDoc{
			Name:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Source:    path,
			Namespace: &domain.Namespace{Source: path},
		},
	}

	var rows []row
	current := sectionNone
	flush := func() {
		p.section(current, statements(rows))
		rows = rows[:0]
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if n == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		if name, ok := sectionHeader(line); ok {
			flush()
			current = p.enter(name, n)
			continue
		}
		if cells := splitRow(line); cells != nil {
			rows = append(rows, row{line: n, cells: cells})
		}
	}
	flush()
	return p.doc
}

type parse struct {
	doc     *domain.ResourceDoc
	keyword *domain.KeywordDoc
}

func (p *parse) errorf(line int, format string, args ...any) {
	p.doc.Errors = append(p.doc.Errors, domain.DocError{
		Message:  fmt.Sprintf(format, args...),
		TypeName: errorType,
		Source:   p.doc.Source,
		Line:     line,
	})
}

// sectionHeader returns the name of a "*** Name ***" header line.
func sectionHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, "*") {
		return "", false
	}
	cell := line
	if cells := splitRow(line); len(cells) > 0 {
		cell = cells[0]
	}
	return strings.TrimSpace(strings.Trim(cell, "* ")), true
}

func (p *parse) enter(name string, line int) section {
	switch strings.TrimSuffix(normalize(name), "s") {
	case "setting":
		return sectionSettings
	case "variable":
		return sectionVariables
	case "keyword":
		return sectionKeywords
	case "comment":
		return sectionComments
	case "testcase", "task":
		p.errorf(line, "Resource file with '%s' section is invalid.", name)
		return sectionTests
	default:
		p.errorf(line, "Unrecognized section header '*** %s ***'.", name)
		return sectionUnknown
	}
}

func (p *parse) section(s section, stmts []statement) {
	for _, stmt := range stmts {
		switch s {
		case sectionSettings:
			p.setting(stmt)
		case sectionVariables:
			p.variable(stmt)
		case sectionKeywords:
			p.keywordRow(stmt)
		case sectionNone, sectionTests, sectionComments, sectionUnknown:
		}
	}
	p.keyword = nil
}

func (p *parse) setting(stmt statement) {
	cells := stmt.cells()
	if len(cells) == 0 || cells[0] == "" {
		return
	}

	var kind domain.ImportKind
	switch normalize(cells[0]) {
	case "documentation":
		p.doc.Doc = documentation(stmt)
		return
	case "library":
		kind = domain.KindLibrary
	case "resource":
		kind = domain.KindResource
	case "variables":
		kind = domain.KindVariables
	default:
		return
	}

	if len(cells) < 2 || cells[1] == "" {
		p.errorf(stmt.line, "Setting '%s' requires a value.", cells[0])
		return
	}

	ref := domain.ImportRef{Kind: kind, Name: cells[1], Line: stmt.line}
	switch kind {
	case domain.KindLibrary:
		ref.Args = libraryArgs(cells[2:])
	case domain.KindVariables:
		ref.Args = cells[2:]
	case domain.KindResource:
		if len(cells) > 2 {
			p.errorf(stmt.line, "Setting 'Resource' accepts only one value, got %d.", len(cells)-1)
		}
	}
	if len(ref.Args) == 0 {
		ref.Args = nil
	}
	p.doc.Namespace.Imports = append(p.doc.Namespace.Imports, ref)
}

// libraryArgs drops the alias part of "Lib  arg  AS  alias".
func libraryArgs(cells []string) []string {
	for i, cell := range cells {
		if cell == "AS" || cell == "WITH NAME" {
			return cells[:i]
		}
	}
	return cells
}

func (p *parse) variable(stmt statement) {
	cells := stmt.cells()
	if len(cells) == 0 || cells[0] == "" {
		return
	}
	name := strings.TrimSpace(strings.TrimSuffix(cells[0], "="))
	if !isVariableName(name) {
		p.errorf(stmt.line, "Invalid variable name '%s'.", cells[0])
		return
	}
	p.doc.Variables = append(p.doc.Variables, domain.VariableDoc{
		Name:   name,
		Value:  strings.Join(cells[1:], "    "),
		Source: p.doc.Source,
		Line:   stmt.line,
	})
}

func isVariableName(name string) bool {
	if len(name) < 4 || !strings.ContainsRune("$@&", rune(name[0])) {
		return false
	}
	return name[1] == '{' && strings.HasSuffix(name, "}")
}

func (p *parse) keywordRow(stmt statement) {
	first := stmt.rows[0]
	if first[0] != "" {
		p.doc.Keywords = append(p.doc.Keywords, domain.KeywordDoc{
			Name:   first[0],
			Source: p.doc.Source,
			Line:   stmt.line,
		})
		p.keyword = &p.doc.Keywords[len(p.doc.Keywords)-1]
		if len(first) > 1 {
			p.keywordSetting(statement{line: stmt.line, rows: append([][]string{first[1:]}, stmt.rows[1:]...)})
		}
		return
	}
	if p.keyword == nil {
		p.errorf(stmt.line, "Keyword body without a keyword name.")
		return
	}
	p.keywordSetting(statement{line: stmt.line, rows: append([][]string{first[1:]}, stmt.rows[1:]...)})
}

func (p *parse) keywordSetting(stmt statement) {
	cells := stmt.cells()
	if len(cells) == 0 {
		return
	}
	switch normalize(cells[0]) {
	case "[documentation]":
		p.keyword.Doc = documentation(stmt)
	case "[arguments]":
		p.keyword.Args = append(p.keyword.Args, cells[1:]...)
	}
}

// documentation joins the values of a documentation setting. Continuation
// rows start a new line.
func documentation(stmt statement) string {
	lines := make([]string, 0, len(stmt.rows))
	for i, r := range stmt.rows {
		if i == 0 {
			r = r[1:]
		}
		lines = append(lines, strings.Join(r, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// normalize lowercases name and removes spaces.
func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

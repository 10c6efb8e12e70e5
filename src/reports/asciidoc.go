package reports

import (
	"fmt"
	"strings"
)

// asciidoc accumulates an asciidoc document.
type asciidoc struct {
	b strings.Builder
}

func newAsciidoc(title string) *asciidoc {
	doc := &asciidoc{}
	doc.line("= %s", title)
	doc.line(":source-highlighter: coderay")
	doc.line(":coderay-linenums-mode: inline")
	doc.line(":toc: left")
	doc.line(":toclevels: 2")
	doc.blank()
	return doc
}

func (d *asciidoc) line(format string, a ...interface{}) {
	fmt.Fprintf(&d.b, format, a...)
	d.b.WriteString("\n")
}

func (d *asciidoc) blank() {
	d.b.WriteString("\n")
}

func (d *asciidoc) section(level int, title string) {
	d.blank()
	d.line("%s %s", strings.Repeat("=", level+1), title)
	d.blank()
}

func (d *asciidoc) attribute(name, value string) {
	d.line("*%s*: %s +", name, value)
}

// table writes a table with a header row. Cells are escaped for the table syntax.
func (d *asciidoc) table(headers []string, rows [][]string) {
	d.line("[cols=\"%s\", options=\"header\"]", strings.TrimSuffix(strings.Repeat("1,", len(headers)), ","))
	d.line("|===")
	for _, header := range headers {
		d.line("|%s", escapeCell(header))
	}
	for _, row := range rows {
		d.blank()
		for _, cell := range row {
			d.line("|%s", escapeCell(cell))
		}
	}
	d.line("|===")
	d.blank()
}

func (d *asciidoc) source(language, text string) {
	d.line("[source,%s]", language)
	d.line("----")
	d.line("%s", text)
	d.line("----")
	d.blank()
}

// collapsible wraps body in a block hidden by default.
func (d *asciidoc) collapsible(title string, body func()) {
	d.line(".%s", title)
	d.line("[%%collapsible]")
	d.line("====")
	body()
	d.line("====")
	d.blank()
}

func (d *asciidoc) String() string {
	return d.b.String()
}

func escapeCell(cell string) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(cell), " "), "|", "\\|")
}

package grammar

import (
	"io"
	"sort"
	"strings"
	"text/template"
)

type NonTerminalReport struct {
	Name     string   `json:"name"`
	Filler   string   `json:"filler"`
	Nullable bool     `json:"nullable"`
	First    []string `json:"first"`
	Follow   []string `json:"follow"`
}

type TableCellReport struct {
	Terminal string `json:"terminal"`
	Entry    string `json:"entry"`
}

type TableRowReport struct {
	NonTerminal string             `json:"non_terminal"`
	Cells       []*TableCellReport `json:"cells"`
}

// Report describes a compiled grammar in a readable form.
type Report struct {
	Name         string               `json:"name"`
	Terminals    []string             `json:"terminals"`
	Productions  []string             `json:"productions"`
	NonTerminals []*NonTerminalReport `json:"non_terminals"`
	Table        []*TableRowReport    `json:"table"`
}

func genReport(report *Report, cg *CompiledGrammar, r *symbolTableReader, first *firstSet, follow *followSet, rows [][]Entry) {
	report.Name = cg.Name
	report.Terminals = cg.Terminals[1:]

	report.Productions = nil
	for _, prod := range cg.Productions[1:] {
		report.Productions = append(report.Productions, prod.format(cg))
	}

	termTexts := func(syms map[symbol]struct{}, eof bool) []string {
		var texts []string
		for sym := range syms {
			text, _ := r.toText(sym)
			texts = append(texts, text)
		}
		sort.Strings(texts)
		if eof {
			texts = append(texts, SymbolNameEOF)
		}
		return texts
	}

	report.NonTerminals = nil
	report.Table = nil
	for _, sym := range r.nonTerminalSymbols() {
		fst := first.findBySymbol(sym)
		flw, _ := follow.find(sym)
		name, _ := r.toText(sym)
		report.NonTerminals = append(report.NonTerminals, &NonTerminalReport{
			Name:     name,
			Filler:   cg.Fillers[sym.num()],
			Nullable: fst.empty,
			First:    termTexts(fst.symbols, false),
			Follow:   termTexts(flw.symbols, flw.eof),
		})

		row := &TableRowReport{
			NonTerminal: name,
		}
		for _, term := range r.terminalSymbols() {
			e := rows[sym.num()][term.num()]
			if e == EntryEmpty {
				continue
			}
			text, _ := r.toText(term)
			row.Cells = append(row.Cells, &TableCellReport{
				Terminal: text,
				Entry:    e.String(),
			})
		}
		report.Table = append(report.Table, row)
	}
}

const reportTemplate = `# Grammar {{ .Name }}

# Terminals

{{ range .Terminals -}}
{{ . }}
{{ end }}
# Productions

{{ range $i, $p := .Productions -}}
{{ inc $i }}: {{ $p }}
{{ end }}
# Non-terminals
{{ range .NonTerminals }}
## {{ .Name }}

filler:   {{ printf "%q" .Filler }}
nullable: {{ .Nullable }}
FIRST:    {{ join .First }}
FOLLOW:   {{ join .Follow }}
{{ end }}
# Table
{{ range .Table }}
## {{ .NonTerminal }}

{{ range .Cells -}}
{{ printf "%-10v" .Terminal }} {{ .Entry }}
{{ end -}}
{{ end }}`

// WriteReport prints a report in a readable format.
func WriteReport(w io.Writer, report *Report) error {
	fns := template.FuncMap{
		"inc": func(i int) int {
			return i + 1
		},
		"join": func(texts []string) string {
			return strings.Join(texts, " ")
		},
	}
	tmpl, err := template.New("").Funcs(fns).Parse(reportTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, report)
}

package ui

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlToText flattens topic markup into plain paragraphs. Blocks become
// paragraphs, list items become bullets and scripts are dropped.
func htmlToText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return strings.TrimSpace(src)
	}
	var f flattener
	f.walk(doc)
	return f.String()
}

type flattener struct {
	lines   []string
	line    strings.Builder
	pending bool // whitespace seen since the last word
}

func (f *flattener) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		f.text(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head, atom.Template:
			return
		case atom.Br:
			f.hardBreak()
			return
		case atom.Li:
			f.newline()
			f.line.WriteString("• ")
			f.children(n)
			f.newline()
			return
		case atom.P, atom.Div, atom.Section, atom.Article, atom.Blockquote, atom.Pre,
			atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
			atom.Ul, atom.Ol, atom.Table, atom.Tr, atom.Hr:
			f.paragraph()
			f.children(n)
			f.paragraph()
			return
		}
	}
	f.children(n)
}

func (f *flattener) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.walk(c)
	}
}

func (f *flattener) text(s string) {
	words := strings.Fields(s)
	if len(words) == 0 {
		if s != "" && f.line.Len() > 0 {
			f.pending = true
		}
		return
	}
	if f.line.Len() > 0 && (f.pending || startsWithSpace(s)) && !strings.HasSuffix(f.line.String(), " ") {
		f.line.WriteByte(' ')
	}
	f.line.WriteString(strings.Join(words, " "))
	f.pending = endsWithSpace(s)
}

// newline ends the current line if it has content.
func (f *flattener) newline() {
	f.pending = false
	text := strings.TrimSpace(f.line.String())
	f.line.Reset()
	if text != "" {
		f.lines = append(f.lines, text)
	}
}

// hardBreak ends the current line even when it is empty.
func (f *flattener) hardBreak() {
	if strings.TrimSpace(f.line.String()) == "" {
		f.line.Reset()
		f.pending = false
		f.lines = append(f.lines, "")
		return
	}
	f.newline()
}

// paragraph ends the current line and leaves one blank line after it.
func (f *flattener) paragraph() {
	f.newline()
	if n := len(f.lines); n > 0 && f.lines[n-1] != "" {
		f.lines = append(f.lines, "")
	}
}

func (f *flattener) String() string {
	f.newline()
	lines := f.lines
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\n\r\f") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\n\r\f") != s
}

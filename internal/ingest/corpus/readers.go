package corpus

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// reader turns raw file bytes into plain text plus any title found in the
// document's own markup.
type reader func(raw []byte) (body string, title string, err error)

var readers = map[string]reader{
	".txt":      readText,
	".text":     readText,
	".md":       readMarkdown,
	".markdown": readMarkdown,
	".html":     readHTML,
	".htm":      readHTML,
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Supported reports whether path has an extension Walk can read.
func Supported(path string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(path))]
	return ok
}

func readerFor(path string) (reader, error) {
	r, ok := readers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	return r, nil
}

func readText(raw []byte) (string, string, error) {
	return string(raw), "", nil
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// readMarkdown keeps the text of the document and drops the markup. Block
// boundaries become blank lines so the chunker still sees sections.
func readMarkdown(raw []byte) (string, string, error) {
	root := markdown.Parser().Parse(text.NewReader(raw))

	var (
		buf   strings.Builder
		title string
	)
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case ast.KindParagraph, ast.KindHeading, ast.KindFencedCodeBlock,
				ast.KindCodeBlock, ast.KindThematicBreak, ast.KindHTMLBlock:
				buf.WriteString("\n\n")
			case ast.KindList, ast.KindBlockquote:
				buf.WriteString("\n\n")
			case ast.KindListItem:
				if !strings.HasSuffix(buf.String(), "\n") {
					buf.WriteString("\n")
				}
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 && title == "" {
				title = plainText(node, raw)
			}
		case *ast.Text:
			buf.Write(node.Segment.Value(raw))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteString("\n")
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(raw))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(raw))
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("walking markdown: %w", err)
	}
	return tidy(buf.String()), title, nil
}

// plainText concatenates the text segments below n.
func plainText(n ast.Node, src []byte) string {
	var b bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// readHTML extracts the visible body text and the <title>.
func readHTML(raw []byte) (string, string, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", "", fmt.Errorf("parsing HTML: %w", err)
	}

	var title string
	if t := findElement(doc, "title"); t != nil {
		title = strings.TrimSpace(textContent(t))
	}

	body := findElement(doc, "body")
	if body == nil {
		body = doc
	}
	return tidy(textContent(body)), title, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b)
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template", "head", "nav":
			return
		case "br":
			b.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "section", "article", "h1", "h2", "h3", "h4", "h5", "h6",
			"pre", "blockquote", "table", "ul", "ol":
			b.WriteString("\n\n")
		case "li", "tr", "dt", "dd":
			b.WriteString("\n")
		}
	}
}

// tidy trims trailing space on every line and collapses runs of blank lines.
func tidy(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

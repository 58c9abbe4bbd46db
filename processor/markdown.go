package processor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
)

// ExcerptLength is the excerpt length in characters before the ellipsis.
const ExcerptLength = 200

var languageClass = regexp.MustCompile(`language-(\w+)`)

// syntaxChars drops characters that would read as link or emphasis syntax
// once escapes are removed.
var syntaxChars = strings.NewReplacer("[", "", "]", "", "*", "")

// converter turns sanitized HTML into Markdown with atx headings, fenced
// code blocks and asterisk emphasis.
type converter struct {
	md *md.Converter
}

func newConverter() *converter {
	c := md.NewConverter("", true, &md.Options{
		HeadingStyle:    "atx",
		CodeBlockStyle:  "fenced",
		Fence:           "```",
		EmDelimiter:     "*",
		StrongDelimiter: "**",
	})
	c.AddRules(
		md.Rule{
			Filter:      []string{"pre"},
			Replacement: fencedCode,
		},
		md.Rule{
			Filter:      []string{"img"},
			Replacement: inlineImage,
		},
	)
	return &converter{md: c}
}

// Convert returns the Markdown for fragment, trimmed.
func (c *converter) Convert(fragment string) (string, error) {
	out, err := c.md.ConvertString(fragment)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// fencedCode renders a pre element as a fenced block tagged with the
// language named by a "language-x" class on the pre or its code child.
func fencedCode(_ string, selec *goquery.Selection, _ *md.Options) *string {
	code := selec.Text()
	lang := codeLanguage(selec)

	fence := "```"
	for strings.Contains(code, fence) {
		fence += "`"
	}

	block := "\n\n" + fence + lang + "\n" + strings.TrimRight(code, "\n") + "\n" + fence + "\n\n"
	return md.String(block)
}

// inlineImage renders an img element, keeping the space that separated it
// from the preceding inline content.
func inlineImage(_ string, selec *goquery.Selection, _ *md.Options) *string {
	src := strings.TrimSpace(selec.AttrOr("src", ""))
	if src == "" {
		return md.String("")
	}

	out := "![" + selec.AttrOr("alt", "") + "](" + src
	if title := selec.AttrOr("title", ""); title != "" {
		out += ` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`
	}
	out += ")"

	if spaceBefore(selec) {
		out = " " + out
	}
	return md.String(out)
}

func spaceBefore(selec *goquery.Selection) bool {
	if len(selec.Nodes) == 0 {
		return false
	}
	prev := selec.Nodes[0].PrevSibling
	if prev == nil || prev.Type != html.TextNode || prev.Data == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(prev.Data)
	return unicode.IsSpace(r)
}

func codeLanguage(pre *goquery.Selection) string {
	classes := []string{pre.AttrOr("class", "")}
	pre.Find("code").Each(func(_ int, code *goquery.Selection) {
		classes = append(classes, code.AttrOr("class", ""))
	})
	for _, class := range classes {
		if m := languageClass.FindStringSubmatch(class); m != nil {
			return m[1]
		}
	}
	return ""
}

// Excerpt derives a plain-text summary of markdown. Link labels and inline
// code text are kept; images, code blocks and raw HTML are dropped. The
// result is at most ExcerptLength characters plus "...".
func Excerpt(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Image, *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			b.Write(node.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.WriteString(literalText(node.Segment.Value(source)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		}
		return ast.WalkContinue, nil
	})

	return truncate(strings.Join(strings.Fields(b.String()), " "), ExcerptLength)
}

// literalText unescapes a text segment and removes syntax characters that
// were escaped in the source.
func literalText(segment []byte) string {
	return syntaxChars.Replace(string(util.UnescapePunctuations(segment)))
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

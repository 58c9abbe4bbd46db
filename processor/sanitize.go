package processor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/postcrawl/extract"
)

// defaultAlt is set on images that carry no alt text.
const defaultAlt = "Image"

// sanitize parses an HTML fragment, drops the sanitize selectors and makes
// image sources and link targets absolute against base.
func (p *Processor) sanitize(fragment, base string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	for _, sel := range p.extractor.Selectors().Sanitize {
		if sel != "" {
			doc.Find(sel).Remove()
		}
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if alt, _ := img.Attr("alt"); strings.TrimSpace(alt) == "" {
			img.SetAttr("alt", defaultAlt)
		}
		absolutize(img, "src", base)
	})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		absolutize(a, "href", base)
	})

	return doc, nil
}

// absolutize rewrites a relative URL attribute against base. Fragment-only
// and non-HTTP references are left alone.
func absolutize(sel *goquery.Selection, attr, base string) {
	value, ok := sel.Attr(attr)
	value = strings.TrimSpace(value)
	if !ok || value == "" || strings.HasPrefix(value, "#") || hasScheme(value) {
		return
	}

	resolved, err := extract.Resolve(base, value)
	if err != nil {
		return
	}
	sel.SetAttr(attr, resolved)
}

func hasScheme(ref string) bool {
	i := strings.Index(ref, ":")
	if i <= 0 {
		return false
	}
	return !strings.ContainsAny(ref[:i], "/?#")
}

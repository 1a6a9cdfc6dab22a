package domdiff

import (
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractElementsFromHTML linearises a captured screen.html artifact the
// same way ExtractElements linearises a structured dom.json tree, for
// sections that only ship HTML snapshots. Computed CSS and bounding
// rects are unavailable from static markup, so Position/Colors/Style are
// left nil; text-based matching and classification still apply.
func ExtractElementsFromHTML(r io.Reader) ([]Element, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	var out []Element
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Children().Each(func(_ int, child *goquery.Selection) {
			node := child.Get(0)
			tag := strings.ToLower(node.Data)
			if !skipTags[tag] && tag != "" {
				out = append(out, buildHTMLElement(tag, child))
			}
			walk(child)
		})
	}
	walk(doc.Selection)
	return out, nil
}

func buildHTMLElement(tag string, sel *goquery.Selection) Element {
	text := strings.TrimSpace(sel.Clone().Children().Remove().End().Text())
	norm := strings.Join(strings.Fields(text), " ")

	id, _ := sel.Attr("id")
	testID, _ := sel.Attr("data-testid")
	class, _ := sel.Attr("class")

	e := Element{
		Tag:            tag,
		Text:           text,
		NormalizedText: norm,
		ID:             id,
		DataTestID:     testID,
		ClassName:      class,
		ContentType:    ClassifyContent(norm),
	}
	e.Signature = Signature(e)
	return e
}

// sortedClasses applies the same first-max-sorted-classes rule Signature
// uses. It is unexported, and Signature does not call it.
func sortedClasses(class string, max int) []string {
	classes := strings.Fields(class)
	sort.Strings(classes)
	if len(classes) > max {
		classes = classes[:max]
	}
	return classes
}

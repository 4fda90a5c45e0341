// File: internal/locator/strategy.go
package locator

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/dailyembed/internal/browser"
)

// Searcher is anything a query can run against: a page or an element.
type Searcher interface {
	Find(ctx context.Context, q browser.Query) ([]browser.Element, error)
}

// Strategy is one named rule for finding candidate elements. The set of
// implementations is closed: CSS, Attribute, Text, AncestorOf and Relative.
type Strategy interface {
	Name() string
	Candidates(ctx context.Context, root Searcher) ([]browser.Element, error)
	isStrategy()
}

// CSS matches a CSS selector.
type CSS struct {
	Selector string
}

func (s CSS) Name() string { return "css:" + s.Selector }

func (s CSS) Candidates(ctx context.Context, root Searcher) ([]browser.Element, error) {
	return root.Find(ctx, browser.ByCSS(s.Selector))
}

func (CSS) isStrategy() {}

// Attribute matches elements whose attribute contains a substring.
type Attribute struct {
	Tag      string // "" matches any element
	Attr     string
	Contains string
}

func (s Attribute) Name() string {
	return fmt.Sprintf("attr:%s[@%s~%q]", tagOrAny(s.Tag), s.Attr, s.Contains)
}

func (s Attribute) XPath() string {
	return fmt.Sprintf("//%s[contains(@%s, %s)]", tagOrAny(s.Tag), s.Attr, XPathLiteral(s.Contains))
}

func (s Attribute) Candidates(ctx context.Context, root Searcher) ([]browser.Element, error) {
	return root.Find(ctx, browser.ByXPath(s.XPath()))
}

func (Attribute) isStrategy() {}

// Text matches elements by their whitespace-normalized text.
type Text struct {
	Tags []string // empty matches any element
	Text string
	// Contains switches from exact to substring matching.
	Contains bool
}

func (s Text) Name() string {
	op := "="
	if s.Contains {
		op = "~"
	}
	return fmt.Sprintf("text:%s%s%q", strings.Join(s.tagsOrAny(), "|"), op, s.Text)
}

func (s Text) XPath() string {
	pred := fmt.Sprintf("normalize-space()=%s", XPathLiteral(s.Text))
	if s.Contains {
		pred = fmt.Sprintf("contains(normalize-space(), %s)", XPathLiteral(s.Text))
	}
	if len(s.Tags) == 0 {
		return fmt.Sprintf("//*[%s]", pred)
	}
	selfs := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		selfs[i] = "self::" + t
	}
	return fmt.Sprintf("//*[(%s) and %s]", strings.Join(selfs, " or "), pred)
}

func (s Text) tagsOrAny() []string {
	if len(s.Tags) == 0 {
		return []string{"*"}
	}
	return s.Tags
}

func (s Text) Candidates(ctx context.Context, root Searcher) ([]browser.Element, error) {
	return root.Find(ctx, browser.ByXPath(s.XPath()))
}

func (Text) isStrategy() {}

// AncestorOf climbs from each node matched by Of to its nearest ancestor
// with tag Tag.
type AncestorOf struct {
	Of  Strategy
	Tag string
}

func (s AncestorOf) Name() string {
	return fmt.Sprintf("ancestor:%s<%s", tagOrAny(s.Tag), s.Of.Name())
}

func (s AncestorOf) Candidates(ctx context.Context, root Searcher) ([]browser.Element, error) {
	inner, err := s.Of.Candidates(ctx, root)
	if err != nil {
		return nil, err
	}
	q := browser.ByXPath(fmt.Sprintf("ancestor::%s[1]", tagOrAny(s.Tag)))
	var out []browser.Element
	for _, el := range inner {
		found, err := el.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (AncestorOf) isStrategy() {}

// Relative runs Query inside every element matched by Base.
type Relative struct {
	Base  Strategy
	Query browser.Query
}

func (s Relative) Name() string {
	return fmt.Sprintf("%s >> %s", s.Base.Name(), s.Query)
}

func (s Relative) Candidates(ctx context.Context, root Searcher) ([]browser.Element, error) {
	bases, err := s.Base.Candidates(ctx, root)
	if err != nil {
		return nil, err
	}
	var out []browser.Element
	for _, b := range bases {
		found, err := b.Find(ctx, s.Query)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (Relative) isStrategy() {}

func tagOrAny(tag string) string {
	if tag == "" {
		return "*"
	}
	return tag
}

// CSSString quotes s as a single-quoted CSS string, escaping anything that
// would end the string early.
func CSSString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\', '\'':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\a `)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// XPathLiteral quotes s for use inside an XPath expression, falling back to
// concat() when s contains both quote characters.
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

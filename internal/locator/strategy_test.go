// File: internal/locator/strategy_test.go
package locator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/dailyembed/internal/browser"
	"github.com/xkilldash9x/dailyembed/internal/browser/browsertest"
)

func TestStrategyXPath(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			"attribute contains",
			Attribute{Tag: "a", Attr: "href", Contains: "/espiritualidad/evangelios"}.XPath(),
			"//a[contains(@href, '/espiritualidad/evangelios')]",
		},
		{
			"any tag attribute",
			Attribute{Attr: "aria-label", Contains: "video"}.XPath(),
			"//*[contains(@aria-label, 'video')]",
		},
		{
			"exact text on tags",
			Text{Tags: []string{"a", "button"}, Text: "Evangelios"}.XPath(),
			"//*[(self::a or self::button) and normalize-space()='Evangelios']",
		},
		{
			"contains text any tag",
			Text{Text: "Editar reflexión", Contains: true}.XPath(),
			"//*[contains(normalize-space(), 'Editar reflexión')]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestStrategyNames(t *testing.T) {
	assert.Equal(t, "css:a.btn", CSS{Selector: "a.btn"}.Name())
	assert.Equal(t, `attr:a[@href~"/evangelios"]`, Attribute{Tag: "a", Attr: "href", Contains: "/evangelios"}.Name())
	assert.Equal(t, `attr:*[@aria-label~"video"]`, Attribute{Attr: "aria-label", Contains: "video"}.Name())
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, "'plain'", XPathLiteral("plain"))
	assert.Equal(t, `"it's"`, XPathLiteral("it's"))
	assert.Equal(t, `concat('say "hi" it', "'", 's')`, XPathLiteral(`say "hi" it's`))
}

func TestAncestorOfAndRelative(t *testing.T) {
	ctx := context.Background()

	anchor := browsertest.NewElement("Evangelios").WithAttr("href", "/espiritualidad/evangelios-y-santo")
	label := browsertest.NewElement("Evangelios").WithChild("ancestor::a[1]", anchor)
	inner := Text{Text: "Evangelios"}
	page := browsertest.NewPage().Set(inner.XPath(), label)

	got, err := AncestorOf{Of: inner, Tag: "a"}.Candidates(ctx, page)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Same(t, anchor, got[0])

	b1 := browsertest.NewElement("1")
	b2 := browsertest.NewElement("2")
	section := browsertest.NewElement("Evangelios actuales").WithChild("button", b1, b2)
	page.Set("section.current", section)

	rel := Relative{Base: CSS{Selector: "section.current"}, Query: browser.ByCSS("button")}
	got, err = rel.Candidates(ctx, page)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, rel.Name(), ">> css=button")
}

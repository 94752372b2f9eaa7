package taghelper

import (
	"context"
	"strings"

	"golang.org/x/net/html"
)

// Element is the mutable view of one start tag handed to
// helpers.
type Element struct {
	// TagName is the lowercase element name written out.
	TagName string

	// Attrs are the attributes written out.
	Attrs Attributes

	// Original holds the attributes as authored. Helpers
	// must not modify it.
	Original Attributes

	// PreContent is emitted right after the start tag.
	PreContent string

	// PostContent is emitted right before the end tag.
	PostContent string
}

// Helper transforms elements it matches. Process must not
// fail the render: helpers degrade to leaving the element
// as close to authored as possible.
type Helper interface {
	// Match is called with the authored tag name and
	// attributes.
	Match(tag string, attrs Attributes) bool

	// Order sorts matching helpers, lowest first.
	Order() int

	// Process edits el in place.
	Process(ctx context.Context, el *Element)
}

// startTag renders el as a start tag.
func (el *Element) startTag(selfClosing bool) string {
	var sb strings.Builder

	sb.WriteByte('<')
	sb.WriteString(el.TagName)

	for _, at := range el.Attrs {
		sb.WriteByte(' ')
		sb.WriteString(at.Name)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(at.Value))
		sb.WriteByte('"')
	}

	if selfClosing {
		sb.WriteString(" />")
	} else {
		sb.WriteByte('>')
	}

	return sb.String()
}

package taghelper

import "context"

// Bold turns a "bold" attribute into a <strong> wrapped
// around the element's content.
type Bold struct{}

// Match implements Helper.
func (Bold) Match(_ string, attrs Attributes) bool {
	return attrs.Has("bold")
}

// Order implements Helper.
func (Bold) Order() int { return 0 }

// Process implements Helper.
func (Bold) Process(_ context.Context, el *Element) {
	el.Attrs.Remove("bold")
	el.PreContent += "<strong>"
	el.PostContent = "</strong>" + el.PostContent
}

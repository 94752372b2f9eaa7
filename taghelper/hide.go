package taghelper

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// HideParent removes the wrapper around a block of HTML
// when its "hide" attribute is true: the element becomes a
// bare <span> and loses every authored attribute, while its
// content is kept. An empty "hide" counts as true.
type HideParent struct{}

// Match implements Helper.
func (HideParent) Match(_ string, attrs Attributes) bool {
	return attrs.Has("hide")
}

// Order implements Helper. It runs before the other
// helpers.
func (HideParent) Order() int { return -99 }

// Process implements Helper.
func (HideParent) Process(_ context.Context, el *Element) {
	val, _ := el.Attrs.Get("hide")
	el.Attrs.Remove("hide")

	if !parseHide(val) {
		return
	}

	el.TagName = "span"

	for _, at := range el.Original {
		el.Attrs.Remove(at.Name)
	}
}

func parseHide(val string) bool {
	val = strings.TrimSpace(val)
	if val == "" {
		return true
	}

	hide, err := strconv.ParseBool(strings.ToLower(val))
	if err != nil {
		slog.Debug("ignoring invalid hide value", "value", val)

		return false
	}

	return hide
}

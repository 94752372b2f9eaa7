package taghelper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// voidElements never have an end tag.
//
//nolint:gochecknoglobals // lookup table
var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {},
	"hr": {}, "img": {}, "input": {}, "link": {}, "meta": {},
	"source": {}, "track": {}, "wbr": {},
}

// closesP lists the start tags that end an open p element.
//
//nolint:gochecknoglobals // lookup table
var closesP = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {},
	"details": {}, "div": {}, "dl": {}, "fieldset": {},
	"figcaption": {}, "figure": {}, "footer": {}, "form": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"header": {}, "hgroup": {}, "hr": {}, "main": {}, "menu": {},
	"nav": {}, "ol": {}, "p": {}, "pre": {}, "section": {},
	"table": {}, "ul": {},
}

// scopeBoundaries stop the search for an element to close
// implicitly.
//
//nolint:gochecknoglobals // lookup table
var scopeBoundaries = map[string]struct{}{
	"applet": {}, "button": {}, "caption": {}, "html": {},
	"marquee": {}, "object": {}, "table": {}, "td": {},
	"template": {}, "th": {},
}

// Rewriter applies Helpers to a stream of HTML.
type Rewriter struct {
	Helpers []Helper
}

// NewRewriter returns a Rewriter running helpers.
func NewRewriter(helpers ...Helper) *Rewriter {
	return &Rewriter{Helpers: helpers}
}

// openElement tracks a start tag awaiting its end tag.
type openElement struct {
	name string
	out  string
	post string
}

// Rewrite copies HTML from r to w, applying the helpers to
// every start tag they match. Markup no helper touches is
// copied unchanged.
func (rw *Rewriter) Rewrite(
	ctx context.Context,
	r io.Reader,
	w io.Writer,
) error {
	const errCtx = "rewriting html"

	helpers := rw.sortedHelpers()
	z := html.NewTokenizer(r)
	bw := bufio.NewWriter(w)

	var open []openElement

	for {
		tt := z.Next()

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			// End tags may be omitted up to the end of
			// the document.
			closeAll(bw, open)

			if err := bw.Flush(); err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			return nil

		case html.StartTagToken, html.SelfClosingTagToken:
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%s: %w", errCtx, err)
			}

			// Token lowercases the buffer in place, so
			// keep the raw bytes first.
			raw := append([]byte(nil), z.Raw()...)
			tok := z.Token()
			selfClosing := tt == html.SelfClosingTagToken
			_, void := voidElements[tok.Data]

			if idx := impliedEnd(open, tok.Data); idx >= 0 {
				closeAll(bw, open[idx:])
				open = open[:idx]
			}

			el, ok := apply(ctx, helpers, tok)
			if !ok {
				bw.Write(raw) //nolint:errcheck // checked on Flush

				if !selfClosing && !void {
					open = append(open, openElement{
						name: tok.Data, out: tok.Data,
					})
				}

				continue
			}

			bw.WriteString(el.startTag(selfClosing)) //nolint:errcheck // checked on Flush
			bw.WriteString(el.PreContent)             //nolint:errcheck // checked on Flush

			if selfClosing || void {
				bw.WriteString(el.PostContent) //nolint:errcheck // checked on Flush

				continue
			}

			open = append(open, openElement{
				name: tok.Data,
				out:  el.TagName,
				post: el.PostContent,
			})

		case html.EndTagToken:
			raw := append([]byte(nil), z.Raw()...)
			name, _ := z.TagName()

			idx := lastOpen(open, string(name))
			if idx < 0 {
				bw.Write(raw) //nolint:errcheck // checked on Flush

				continue
			}

			// Elements left open inside this one were
			// closed implicitly.
			closeAll(bw, open[idx+1:])

			top := open[idx]
			open = open[:idx]

			bw.WriteString(top.post) //nolint:errcheck // checked on Flush

			if top.out == top.name {
				bw.Write(raw) //nolint:errcheck // checked on Flush
			} else {
				bw.WriteString("</" + top.out + ">") //nolint:errcheck // checked on Flush
			}

		default:
			bw.Write(z.Raw()) //nolint:errcheck // checked on Flush
		}
	}
}

// RewriteString is Rewrite over strings.
func (rw *Rewriter) RewriteString(
	ctx context.Context,
	in string,
) (string, error) {
	var sb strings.Builder

	if err := rw.Rewrite(ctx, strings.NewReader(in), &sb); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// sortedHelpers orders helpers by Order, keeping the
// configured order among equals.
func (rw *Rewriter) sortedHelpers() []Helper {
	helpers := make([]Helper, len(rw.Helpers))
	copy(helpers, rw.Helpers)

	sort.SliceStable(helpers, func(i, j int) bool {
		return helpers[i].Order() < helpers[j].Order()
	})

	return helpers
}

// apply runs every helper matching tok. It reports false
// when none matched.
func apply(
	ctx context.Context,
	helpers []Helper,
	tok html.Token,
) (*Element, bool) {
	attrs := make(Attributes, 0, len(tok.Attr))
	for _, at := range tok.Attr {
		name := at.Key
		if at.Namespace != "" {
			name = at.Namespace + ":" + at.Key
		}

		attrs = append(attrs, Attribute{Name: name, Value: at.Val})
	}

	var matched []Helper

	for _, he := range helpers {
		if he.Match(tok.Data, attrs) {
			matched = append(matched, he)
		}
	}

	if len(matched) == 0 {
		return nil, false
	}

	el := &Element{
		TagName:  tok.Data,
		Attrs:    attrs.Clone(),
		Original: attrs,
	}

	for _, he := range matched {
		he.Process(ctx, el)
	}

	return el, true
}

// closeAll ends open elements whose end tag was omitted,
// innermost first. Renamed elements get an explicit end
// tag.
func closeAll(bw *bufio.Writer, open []openElement) {
	for i := len(open) - 1; i >= 0; i-- {
		bw.WriteString(open[i].post) //nolint:errcheck // checked on Flush

		if open[i].out != open[i].name {
			bw.WriteString("</" + open[i].out + ">") //nolint:errcheck // checked on Flush
		}
	}
}

// impliedEnd returns the index of the open element that a
// start tag named name closes, or -1.
func impliedEnd(open []openElement, name string) int {
	var targets []string

	switch name {
	case "li":
		targets = []string{"li"}
	case "dt", "dd":
		targets = []string{"dt", "dd"}
	case "option":
		targets = []string{"option"}
	}

	if _, ok := closesP[name]; ok {
		targets = append(targets, "p")
	}

	if len(targets) == 0 {
		return -1
	}

	for i := len(open) - 1; i >= 0; i-- {
		cur := open[i].name

		for _, ta := range targets {
			if cur == ta {
				return i
			}
		}

		if _, ok := scopeBoundaries[cur]; ok {
			return -1
		}

		if name == "li" && (cur == "ul" || cur == "ol") ||
			(name == "dt" || name == "dd") && cur == "dl" {
			return -1
		}
	}

	return -1
}

func lastOpen(open []openElement, name string) int {
	for i := len(open) - 1; i >= 0; i-- {
		if open[i].name == name {
			return i
		}
	}

	return -1
}

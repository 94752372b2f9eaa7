package taghelper

import "context"

// IntegrityResolver computes integrity attribute values.
// *integrity.Resolver implements it.
type IntegrityResolver interface {
	Resolve(
		ctx context.Context,
		raw string,
		assetPath string,
	) (string, bool)
}

// Integrity fills the integrity attribute of <script> and
// <link> elements that carry one. An empty value or an
// algorithm name ("sha384") is replaced by the digest of
// the local asset named by src, or href when src is absent.
type Integrity struct {
	Resolver IntegrityResolver
}

// Match implements Helper.
func (Integrity) Match(tag string, attrs Attributes) bool {
	return (tag == "script" || tag == "link") &&
		attrs.Has("integrity")
}

// Order implements Helper.
func (Integrity) Order() int { return 0 }

// Process implements Helper.
func (ih Integrity) Process(ctx context.Context, el *Element) {
	el.Attrs = ih.ProcessAttributes(ctx, el.Attrs)
}

// ProcessAttributes returns attrs with the integrity value
// resolved. attrs itself is not modified. Elements with
// neither src nor href are returned unchanged.
func (ih Integrity) ProcessAttributes(
	ctx context.Context,
	attrs Attributes,
) Attributes {
	out := attrs.Clone()

	raw, ok := attrs.Get("integrity")
	if !ok {
		return out
	}

	src, ok := attrs.Get("src")
	if !ok {
		src, ok = attrs.Get("href")
	}

	if !ok {
		return out
	}

	if val, changed := ih.Resolver.Resolve(ctx, raw, src); changed {
		out.Set("integrity", val)
	}

	return out
}

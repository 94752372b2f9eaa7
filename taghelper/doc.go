// Package taghelper post-processes rendered HTML. A Rewriter streams a page
// through the golang.org/x/net/html tokenizer and hands every start tag to
// the Helpers that match it. Helpers edit an Element (tag name, attributes,
// content injected just inside the element) and the Rewriter writes the
// result back, copying untouched markup byte for byte.
//
// Three helpers are provided: Bold wraps content in <strong>, HideParent
// strips a wrapper element on demand, and Integrity fills the integrity
// attribute of local <script> and <link> tags.
package taghelper

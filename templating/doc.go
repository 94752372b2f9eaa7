// Package templating renders HTML pages with valyala/fasttemplate and then
// post-processes them with taghelper. Variables come from stamp info files
// ("KEY VALUE" lines) and explicit NAME=VALUE pairs; imports pull in HTML
// partials. Delimiters are configurable (default "{{" and "}}").
//
// Engine.Render reads a page template, substitutes variables and imports,
// streams the result through the configured taghelper.Rewriter, and writes
// the final page.
package templating

package testhelpers

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Rendered holds the HTML of a templ component rendered in a test
type Rendered struct {
	t    *testing.T
	html string
}

// Render renders component and fails the test on error
func Render(t *testing.T, component templ.Component) *Rendered {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, component.Render(context.Background(), &buf))
	return &Rendered{t: t, html: buf.String()}
}

// HTML returns the rendered HTML
func (r *Rendered) HTML() string {
	return r.html
}

// Contains checks the HTML contains substring
func (r *Rendered) Contains(substring string) *Rendered {
	r.t.Helper()
	assert.Contains(r.t, r.html, substring)
	return r
}

// NotContains checks the HTML does not contain substring
func (r *Rendered) NotContains(substring string) *Rendered {
	r.t.Helper()
	assert.NotContains(r.t, r.html, substring)
	return r
}

// HasElementWithID checks for an element with the given id
func (r *Rendered) HasElementWithID(id string) *Rendered {
	r.t.Helper()
	pattern := `id=["']` + regexp.QuoteMeta(id) + `["']`
	assert.Regexp(r.t, pattern, r.html, "element with id %q", id)
	return r
}

// HasDatastarAttribute checks for a data-* attribute with the given value
func (r *Rendered) HasDatastarAttribute(attribute, value string) *Rendered {
	r.t.Helper()
	pattern := `data-` + regexp.QuoteMeta(attribute) + `=["']` + regexp.QuoteMeta(value) + `["']`
	assert.Regexp(r.t, pattern, r.html, "attribute data-%s=%q", attribute, value)
	return r
}

package service

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	indentLevel = regexp.MustCompile(`^[0-9]{1,2}$`)
	indentStyle = regexp.MustCompile(`^[0-9]{1,2}(\.[0-9]+)?em$`)
)

// newContentPolicy allows user generated rich text plus the paragraph
// indentation the story editor emits (data-indent and text-indent).
func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	blocks := []string{"p", "h1", "h2", "h3", "h4", "h5", "h6"}
	p.AllowAttrs("data-indent").Matching(indentLevel).OnElements(blocks...)
	p.AllowStyles("text-indent").Matching(indentStyle).OnElements(blocks...)
	return p
}

// Package sanitize holds the HTML safety checks applied to visitor input.
//
// IsCleanHTML is the gate used during validation: it rejects messages that
// carry script-capable markup. Clean is used when text is echoed back into a
// rendered page and strips every tag.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	reScriptTag   = regexp.MustCompile(`(?i)<\s*script`)
	reEventAttr   = regexp.MustCompile(`(?i)\bon(abort|activate|afterprint|afterupdate|beforeactivate|beforecopy|beforecut|beforedeactivate|beforeeditfocus|beforepaste|beforeprint|beforeunload|beforeupdate|blur|bounce|cellchange|change|click|contextmenu|controlselect|copy|cut|dataavailable|datasetchanged|datasetcomplete|dblclick|deactivate|drag|dragend|dragenter|dragleave|dragover|dragstart|drop|error|errorupdate|filterchange|finish|focus|focusin|focusout|help|keydown|keypress|keyup|layoutcomplete|load|losecapture|mousedown|mouseenter|mouseleave|mousemove|mouseout|mouseover|mouseup|mousewheel|move|moveend|movestart|paste|propertychange|readystatechange|reset|resize|resizeend|resizestart|rowenter|rowexit|rowsdelete|rowsinserted|scroll|select|selectionchange|selectstart|start|stop|submit|unload)\s*=`)
	reScriptProto = regexp.MustCompile(`(?i)\b(java|vb)?script\s*:`)
	reEmbedTags   = regexp.MustCompile(`(?i)<\s*(i?frame|form|input|embed|object)\b`)
)

// IsCleanHTML reports whether s is free of script tags, inline event
// handlers, script: URLs and embedding elements. Entity-encoded input is
// decoded once before matching so "&lt;script" does not slip through.
func IsCleanHTML(s string) bool {
	if s == "" {
		return true
	}
	for _, candidate := range []string{s, html.UnescapeString(s)} {
		if reScriptTag.MatchString(candidate) ||
			reEventAttr.MatchString(candidate) ||
			reScriptProto.MatchString(candidate) ||
			reEmbedTags.MatchString(candidate) {
			return false
		}
	}
	return true
}

var strict = bluemonday.StrictPolicy()

// Clean strips all markup from s and trims surrounding whitespace. The
// result is safe to place inside an HTML text node after escaping.
func Clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// NL2BR escapes s and converts line breaks to <br /> for HTML email bodies.
func NL2BR(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = html.EscapeString(s)
	return strings.ReplaceAll(s, "\n", "<br />\n")
}

package outline

import (
	"regexp"
	"strconv"
	"strings"
)

// Inline marker keys carried in <!-- key:value --> comments.
const (
	MarkerIcon            = "icon"
	MarkerAnnotation      = "ann"
	MarkerDataObject      = "do"
	MarkerDataObjectAttrs = "doattrs"
	MarkerTags            = "tags"
	MarkerRunningNumber   = "rn"
	MarkerExpandedID      = "expid"
	MarkerFlowID          = "fid"
	MarkerHubNote         = "hubnote"
	MarkerDescription     = "desc"
)

// Bare hashtag tokens appended to line text.
const (
	TagFlow    = "#flow#"
	TagFlowTab = "#flowtab#"
	TagCommon  = "#common#"
)

// FlowIDPrefix prefixes the numeric part of a fid marker value.
const FlowIDPrefix = "flowtab-"

const maxAttrIDLen = 64

var (
	commentRe    = regexp.MustCompile(`<!--([\s\S]*?)-->`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

var knownMarkers = map[string]struct{}{
	MarkerIcon: {}, MarkerAnnotation: {}, MarkerDataObject: {}, MarkerDataObjectAttrs: {},
	MarkerTags: {}, MarkerRunningNumber: {}, MarkerExpandedID: {}, MarkerFlowID: {},
	MarkerHubNote: {}, MarkerDescription: {},
}

// Markers holds every inline annotation found on one line.
type Markers struct {
	Icon                   string
	Annotation             string
	DataObjectID           string
	DataObjectAttributeIDs []string
	Tags                   []string
	RunningNumber          int
	ExpandedID             int
	FlowID                 string
	HubNote                int
	Description            int
	Flow                   bool
	FlowTab                bool
	Common                 bool
}

// Number returns the numeric value of a numbered marker family, if present.
func (m Markers) Number(key string) (int, bool) {
	var n int
	switch key {
	case MarkerRunningNumber:
		n = m.RunningNumber
	case MarkerExpandedID:
		n = m.ExpandedID
	case MarkerHubNote:
		n = m.HubNote
	case MarkerDescription:
		n = m.Description
	case MarkerFlowID:
		n, _ = FlowIDNumber(m.FlowID)
	}
	return n, n > 0
}

// ParseMarkers extracts all known markers from a raw line without modifying it.
func ParseMarkers(line string) Markers {
	var m Markers
	for _, c := range commentRe.FindAllStringSubmatch(line, -1) {
		key, value, ok := splitMarker(c[1])
		if !ok {
			continue
		}
		switch key {
		case MarkerIcon:
			m.Icon = value
		case MarkerAnnotation:
			m.Annotation = value
		case MarkerDataObject:
			m.DataObjectID = value
		case MarkerDataObjectAttrs:
			m.DataObjectAttributeIDs = splitIDList(value, maxAttrIDLen)
		case MarkerTags:
			m.Tags = splitIDList(value, 0)
		case MarkerRunningNumber:
			m.RunningNumber = atoiPositive(value)
		case MarkerExpandedID:
			m.ExpandedID = atoiPositive(value)
		case MarkerFlowID:
			m.FlowID = value
		case MarkerHubNote:
			m.HubNote = atoiPositive(value)
		case MarkerDescription:
			m.Description = atoiPositive(value)
		}
	}
	text := commentRe.ReplaceAllString(line, " ")
	m.Flow = hasToken(text, TagFlow)
	m.FlowTab = hasToken(text, TagFlowTab)
	m.Common = hasToken(text, TagCommon)
	return m
}

// MarkerValue returns the raw value of the first marker with the given key.
func MarkerValue(line, key string) (string, bool) {
	for _, c := range commentRe.FindAllStringSubmatch(line, -1) {
		k, v, ok := splitMarker(c[1])
		if ok && k == key {
			return v, true
		}
	}
	return "", false
}

// SetMarker replaces the value of an existing marker in place, or appends a
// new <!-- key:value --> comment at the end of the line. Other markers keep
// their position and text.
func SetMarker(line, key, value string) string {
	value = Sanitize(value)
	locs := commentRe.FindAllStringSubmatchIndex(line, -1)
	for _, loc := range locs {
		k, _, ok := splitMarker(line[loc[2]:loc[3]])
		if ok && k == key {
			return line[:loc[0]] + "<!-- " + key + ":" + value + " -->" + line[loc[1]:]
		}
	}
	return strings.TrimRight(line, " \t") + " <!-- " + key + ":" + value + " -->"
}

// RemoveMarker drops every comment carrying the given marker key.
func RemoveMarker(line, key string) string {
	locs := commentRe.FindAllStringSubmatchIndex(line, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		k, _, ok := splitMarker(line[loc[2]:loc[3]])
		if !ok || k != key {
			continue
		}
		start := loc[0]
		if start > 0 && line[start-1] == ' ' {
			start--
		}
		line = line[:start] + line[loc[1]:]
	}
	return strings.TrimRight(line, " \t")
}

// HasHashtag reports whether the line text (outside comments) carries tag.
func HasHashtag(line, tag string) bool {
	return hasToken(commentRe.ReplaceAllString(line, " "), tag)
}

// AddHashtag inserts tag after the line text, ahead of the trailing comment
// region. It is a no-op when the tag is already present.
func AddHashtag(line, tag string) string {
	if HasHashtag(line, tag) {
		return line
	}
	cut := len(line)
	if loc := commentRe.FindStringIndex(line); loc != nil {
		cut = loc[0]
	}
	head := strings.TrimRight(line[:cut], " \t")
	tail := line[cut:]
	if tail != "" {
		return head + " " + tag + " " + tail
	}
	return head + " " + tag
}

// RemoveHashtag removes every occurrence of tag outside comments. Only the
// token and one neighbouring space are cut; other spacing is kept.
func RemoveHashtag(line, tag string) string {
	if !HasHashtag(line, tag) {
		return line
	}
	cut := len(line)
	if loc := commentRe.FindStringIndex(line); loc != nil {
		cut = loc[0]
	}
	head, tail := line[:cut], line[cut:]
	indent := len(head) - len(strings.TrimLeft(head, " \t"))
	body := head[indent:]
	for {
		i := tokenIndex(body, tag)
		if i < 0 {
			break
		}
		start, end := i, i+len(tag)
		switch {
		case start > 0:
			start--
		case end < len(body) && body[end] == ' ':
			end++
		}
		body = body[:start] + body[end:]
	}
	return strings.TrimRight(head[:indent]+body+tail, " \t")
}

// tokenIndex returns the offset of the first whitespace-delimited tag in
// text, or -1.
func tokenIndex(text, tag string) int {
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], tag)
		if i < 0 {
			return -1
		}
		i += off
		end := i + len(tag)
		if (i == 0 || isSpace(text[i-1])) && (end == len(text) || isSpace(text[end])) {
			return i
		}
		off = i + 1
	}
	return -1
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' }

// StripMarkers returns display text: comments and hashtag tokens removed,
// whitespace collapsed.
func StripMarkers(s string) string {
	s = commentRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer(TagFlowTab, " ", TagFlow, " ", TagCommon, " ").Replace(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Sanitize removes characters that would break out of a marker comment.
func Sanitize(s string) string {
	s = strings.NewReplacer("\n", "", "\r", "", "<", "", ">", "").Replace(s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "")
	}
	return strings.TrimSpace(s)
}

// FlowIDNumber parses the numeric suffix of a "flowtab-N" value.
func FlowIDNumber(fid string) (int, bool) {
	if !strings.HasPrefix(fid, FlowIDPrefix) {
		return 0, false
	}
	n := atoiPositive(strings.TrimPrefix(fid, FlowIDPrefix))
	return n, n > 0
}

// FormatFlowID renders a flow id marker value.
func FormatFlowID(n int) string {
	return FlowIDPrefix + strconv.Itoa(n)
}

func splitMarker(inner string) (key, value string, ok bool) {
	inner = strings.TrimSpace(inner)
	i := strings.Index(inner, ":")
	if i <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(inner[:i])
	if _, known := knownMarkers[key]; !known {
		return "", "", false
	}
	return key, strings.TrimSpace(inner[i+1:]), true
}

func splitIDList(raw string, maxLen int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		id := Sanitize(part)
		if id == "" {
			continue
		}
		if maxLen > 0 && len(id) > maxLen {
			id = id[:maxLen]
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func hasToken(text, tag string) bool {
	for _, f := range strings.Fields(text) {
		if f == tag {
			return true
		}
	}
	return false
}

func atoiPositive(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// ReplaceText swaps the display text of a raw line. Indentation, hashtag
// tokens and marker comments are kept.
func ReplaceText(line, content string) string {
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	cut := len(line)
	if loc := commentRe.FindStringIndex(line); loc != nil {
		cut = loc[0]
	}
	head, tail := line[:cut], strings.TrimSpace(line[cut:])
	parts := []string{strings.TrimSpace(content)}
	for _, f := range strings.Fields(head) {
		if f == TagFlow || f == TagFlowTab || f == TagCommon {
			parts = append(parts, f)
		}
	}
	if tail != "" {
		parts = append(parts, tail)
	}
	return indent + strings.Join(parts, " ")
}

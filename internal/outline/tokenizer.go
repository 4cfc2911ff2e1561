package outline

import (
	"fmt"
	"strings"
)

// IndentUnit is the number of spaces per outline level.
const IndentUnit = 2

// SeparatorLine divides the outline from the registry blocks.
const SeparatorLine = "---"

const fence = "```"

// Token is one outline line: depth, raw text and its embedded markers.
type Token struct {
	LineIndex int
	Depth     int
	Raw       string
	Text      string // Raw without indentation
	Markers   Markers
}

// Source is a normalised document split into lines.
type Source struct {
	Lines     []string
	Separator int // index of the separator line, -1 when absent
	// skipped marks outline lines that sit inside a fenced block.
	skipped map[int]bool
}

// OutlineEnd returns the index one past the last outline line.
func (s *Source) OutlineEnd() int {
	if s.Separator >= 0 {
		return s.Separator
	}
	return len(s.Lines)
}

// Normalize converts CRLF and lone CR line endings to LF.
func Normalize(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// FindSeparator returns the index of the first "---" line outside fenced
// blocks, or -1.
func FindSeparator(lines []string) int {
	inFence := false
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, fence) {
			inFence = !inFence
			continue
		}
		if !inFence && t == SeparatorLine {
			return i
		}
	}
	return -1
}

// Scan normalises text and locates the separator. It reports unclosed
// fences and repeated separators.
func Scan(text string) (*Source, []*ParseError) {
	lines := strings.Split(Normalize(text), "\n")
	src := &Source{Lines: lines, Separator: -1, skipped: make(map[int]bool)}
	var errs []*ParseError

	inFence := false
	fenceStart := 0
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, fence) {
			if !inFence {
				fenceStart = i
			}
			inFence = !inFence
			if src.Separator < 0 {
				src.skipped[i] = true
			}
			continue
		}
		if inFence {
			if src.Separator < 0 {
				src.skipped[i] = true
			}
			continue
		}
		if t != SeparatorLine {
			continue
		}
		if src.Separator < 0 {
			src.Separator = i
			continue
		}
		errs = append(errs, &ParseError{
			Kind:    KindMultipleSeparators,
			Line:    i,
			Message: "only one --- separator is allowed",
		})
	}
	if inFence {
		errs = append(errs, &ParseError{
			Kind:    KindUnclosedBlock,
			Line:    fenceStart,
			Message: "fenced block is never closed",
		})
	}
	return src, errs
}

// Tokenize turns the outline region of src into tokens. Blank lines and
// lines inside fences are skipped.
func Tokenize(src *Source) ([]Token, []*ParseError) {
	var (
		tokens []Token
		errs   []*ParseError
	)
	prevDepth := -1
	for i := 0; i < src.OutlineEnd(); i++ {
		line := src.Lines[i]
		if src.skipped[i] || strings.TrimSpace(line) == "" {
			continue
		}
		text := strings.TrimLeft(line, " \t")
		lead := line[:len(line)-len(text)]
		if strings.Contains(lead, "\t") {
			errs = append(errs, &ParseError{
				Kind:    KindTabIndentation,
				Line:    i,
				Message: "indentation must use spaces",
			})
			continue
		}
		if len(lead)%IndentUnit != 0 {
			errs = append(errs, &ParseError{
				Kind:    KindOddIndentation,
				Line:    i,
				Message: fmt.Sprintf("indentation of %d spaces is not a multiple of %d", len(lead), IndentUnit),
			})
			continue
		}
		depth := len(lead) / IndentUnit
		if depth > prevDepth+1 {
			errs = append(errs, &ParseError{
				Kind:    KindIndentJumpTooLarge,
				Line:    i,
				Message: "indentation increases by more than one level",
			})
			continue
		}
		prevDepth = depth
		tokens = append(tokens, Token{
			LineIndex: i,
			Depth:     depth,
			Raw:       line,
			Text:      text,
			Markers:   ParseMarkers(text),
		})
	}
	return tokens, errs
}

// IsNodeLine reports whether line i of src would produce an outline node,
// ignoring indentation validity.
func (s *Source) IsNodeLine(i int) bool {
	if i < 0 || i >= s.OutlineEnd() || s.skipped[i] {
		return false
	}
	return strings.TrimSpace(s.Lines[i]) != ""
}

// Indent returns the number of leading spaces of line i.
func Indent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

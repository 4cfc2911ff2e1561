// Package registry encodes and decodes the fenced JSON blocks stored below
// the outline separator, and defines the typed registries kept there.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/nexusmap/internal/outline"
)

var blockRe = regexp.MustCompile("(?m)^```([^\\n`]*)\\n([\\s\\S]*?)\\n```[ \\t]*$")

// Block is one fenced block. Start and End are byte offsets of the whole
// block (fence lines included) in the text it was found in.
type Block struct {
	Name  string
	Body  string
	Start int
	End   int
}

// DecodeError reports a block whose JSON could not be decoded. The registry
// it backs degrades to its empty value.
type DecodeError struct {
	Block string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("registry: decode %s: %v", e.Block, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Blocks lists every fenced block in text, in order.
func Blocks(text string) []Block {
	var out []Block
	for _, m := range blockRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Block{
			Name:  strings.TrimSpace(text[m[2]:m[3]]),
			Body:  text[m[4]:m[5]],
			Start: m[0],
			End:   m[1],
		})
	}
	return out
}

// FindBlock returns the body of the first block named name.
func FindBlock(text, name string) (string, bool) {
	b, ok := findBlock(text, name)
	if !ok {
		return "", false
	}
	return b.Body, true
}

func findBlock(text, name string) (Block, bool) {
	for _, b := range Blocks(text) {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

// Load decodes the block named name into T. A missing block yields the zero
// value and found=false. Malformed JSON yields the zero value and a
// *DecodeError, which callers treat as "registry absent".
func Load[T any](text, name string) (v T, found bool, err error) {
	body, ok := FindBlock(text, name)
	if !ok {
		return v, false, nil
	}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		var zero T
		return zero, false, &DecodeError{Block: name, Err: err}
	}
	return v, true, nil
}

// Save encodes value and writes it into the block named name.
func Save[T any](text, name string, value T) (string, error) {
	return UpsertBlock(text, name, value)
}

// Encode renders value as indented JSON. Struct fields keep declaration
// order and map keys are sorted, so output is stable.
func Encode(value any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// UpsertBlock replaces the body of an existing block in place or inserts a
// new block right after the separator, appending a separator when the
// document has none.
func UpsertBlock(text, name string, value any) (string, error) {
	payload, err := Encode(value)
	if err != nil {
		return "", fmt.Errorf("registry: encode %s: %w", name, err)
	}
	return UpsertRaw(text, name, payload), nil
}

// UpsertRaw is UpsertBlock for an already encoded body.
func UpsertRaw(text, name, body string) string {
	block := "```" + name + "\n" + body + "\n```"
	if b, ok := findBlock(text, name); ok {
		if b.Body == body {
			return text
		}
		return text[:b.Start] + block + text[b.End:]
	}
	return insertBlock(text, block)
}

func insertBlock(text, block string) string {
	lines := strings.Split(text, "\n")
	sep := outline.FindSeparator(lines)
	if sep < 0 {
		if text == "" {
			return outline.SeparatorLine + "\n\n" + block + "\n"
		}
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return text + outline.SeparatorLine + "\n\n" + block + "\n"
	}

	rest := lines[sep+1:]
	out := make([]string, 0, len(lines)+3)
	out = append(out, lines[:sep+1]...)
	out = append(out, "", block)
	if len(rest) == 0 {
		out = append(out, "")
	} else if strings.TrimSpace(rest[0]) != "" {
		out = append(out, "")
	}
	out = append(out, rest...)
	return strings.Join(out, "\n")
}

// RemoveBlock deletes the block named name together with its line break
// and one adjacent blank line.
func RemoveBlock(text, name string) string {
	b, ok := findBlock(text, name)
	if !ok {
		return text
	}
	start, end := b.Start, b.End
	if end < len(text) && text[end] == '\n' {
		end++
	}
	if start >= 2 && text[start-1] == '\n' && text[start-2] == '\n' {
		start--
	}
	return text[:start] + text[end:]
}

// RemoveBlocksWithPrefix deletes every block whose name starts with prefix
// and for which drop returns true.
func RemoveBlocksWithPrefix(text, prefix string, drop func(name string) bool) string {
	for _, b := range Blocks(text) {
		if strings.HasPrefix(b.Name, prefix) && drop(b.Name) {
			text = RemoveBlock(text, b.Name)
		}
	}
	return text
}

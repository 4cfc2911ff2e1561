package registry

import (
	"errors"
	"strings"
	"testing"
)

func TestUpsertBlock_InsertsAfterSeparator(t *testing.T) {
	text := "A\n---\n"
	got, err := UpsertBlock(text, PinnedTagsBlock, PinnedTags{TagIDs: []string{"t1"}})
	if err != nil {
		t.Fatalf("UpsertBlock: %v", err)
	}
	want := "A\n---\n\n```pinned-tags\n{\n  \"tagIds\": [\n    \"t1\"\n  ]\n}\n```\n"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}

	got, err = UpsertBlock(got, CountersBlock, Counters{"rn": 3})
	if err != nil {
		t.Fatalf("UpsertBlock: %v", err)
	}
	if !strings.HasPrefix(got, "A\n---\n\n```running-numbers\n{\n  \"rn\": 3\n}\n```\n\n```pinned-tags\n") {
		t.Errorf("second block not inserted right after separator: %q", got)
	}
}

func TestUpsertBlock_AppendsSeparator(t *testing.T) {
	got, err := UpsertBlock("A\n  B", CountersBlock, Counters{"rn": 1})
	if err != nil {
		t.Fatalf("UpsertBlock: %v", err)
	}
	want := "A\n  B\n---\n\n```running-numbers\n{\n  \"rn\": 1\n}\n```\n"
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestUpsertBlock_ReplacesInPlace(t *testing.T) {
	text := "A\n---\n\n```a\n1\n```\n\n```running-numbers\n{}\n```\n\n```b\n2\n```\n"
	got, err := UpsertBlock(text, CountersBlock, Counters{"rn": 9})
	if err != nil {
		t.Fatalf("UpsertBlock: %v", err)
	}
	want := "A\n---\n\n```a\n1\n```\n\n```running-numbers\n{\n  \"rn\": 9\n}\n```\n\n```b\n2\n```\n"
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
	again, _ := UpsertBlock(got, CountersBlock, Counters{"rn": 9})
	if again != got {
		t.Error("rewriting an equal value must not change the text")
	}
}

func TestLoad_MalformedIsAbsent(t *testing.T) {
	text := "A\n---\n\n```flow-nodes\n{oops\n```\n"
	v, found, err := Load[FlowNodes](text, FlowNodesBlock)
	var de *DecodeError
	if !errors.As(err, &de) || de.Block != FlowNodesBlock {
		t.Fatalf("err = %v, want DecodeError", err)
	}
	if found || len(v.Entries) != 0 {
		t.Errorf("malformed block should decode to empty, got %+v", v)
	}

	_, found, err = Load[FlowNodes]("A\n", FlowNodesBlock)
	if err != nil || found {
		t.Errorf("missing block: found=%v err=%v", found, err)
	}
}

func TestRemoveBlock(t *testing.T) {
	text := "A\n---\n\n```a\n1\n```\n\n```b\n2\n```\n"
	if got := RemoveBlock(text, "b"); got != "A\n---\n\n```a\n1\n```\n" {
		t.Errorf("remove b = %q", got)
	}
	if got := RemoveBlock(text, "a"); got != "A\n---\n\n```b\n2\n```\n" {
		t.Errorf("remove a = %q", got)
	}
	if got := RemoveBlock(text, "missing"); got != text {
		t.Errorf("remove missing changed text")
	}
}

func TestRemoveBlocksWithPrefix(t *testing.T) {
	text := "A\n---\n\n```expanded-grid-1\n[]\n```\n\n```expanded-grid-2\n[]\n```\n"
	got := RemoveBlocksWithPrefix(text, ExpandedGridPrefix, func(name string) bool {
		return name == ExpandedGridBlock(1)
	})
	if got != "A\n---\n\n```expanded-grid-2\n[]\n```\n" {
		t.Errorf("got %q", got)
	}
}

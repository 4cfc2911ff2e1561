package registry

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Tag registry block names.
const (
	TagStoreBlock   = "tag-store"
	PinnedTagsBlock = "pinned-tags"
)

// Well-known tag groups.
const (
	GroupActors    = "tg-actors"
	GroupUISurface = "tg-uiSurface"
)

// ActorTagPrefix is the id prefix of actor tags.
const ActorTagPrefix = "actor-"

// TagGroup is a named group of tags.
type TagGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag is one tag definition.
type Tag struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"groupId"`
}

// TagStore is the tag catalogue.
type TagStore struct {
	Groups []TagGroup `json:"groups"`
	Tags   []Tag      `json:"tags"`
}

// Validate checks every tag names an existing group.
func (s TagStore) Validate() error {
	groups := make([]any, 0, len(s.Groups))
	for _, g := range s.Groups {
		groups = append(groups, g.ID)
	}
	return validation.ValidateStruct(&s,
		validation.Field(&s.Tags, validation.Each(validation.By(func(v any) error {
			t, _ := v.(Tag)
			return validation.ValidateStruct(&t,
				validation.Field(&t.ID, validation.Required),
				validation.Field(&t.GroupID, validation.Required, validation.In(groups...)),
			)
		}))),
	)
}

// GroupOf maps each tag id to its group id.
func (s TagStore) GroupOf() map[string]string {
	out := make(map[string]string, len(s.Tags))
	for _, t := range s.Tags {
		out[t.ID] = t.GroupID
	}
	return out
}

// HasGroup reports whether a group id exists.
func (s TagStore) HasGroup(id string) bool {
	for _, g := range s.Groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// IsActorTag reports whether tag id belongs to the actor group or carries
// the actor prefix.
func IsActorTag(id string, groupOf map[string]string) bool {
	return groupOf[id] == GroupActors || strings.HasPrefix(id, ActorTagPrefix)
}

// PinnedTags is the ordered list of tags pinned to the document toolbar.
type PinnedTags struct {
	TagIDs []string `json:"tagIds"`
}

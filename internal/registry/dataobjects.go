package registry

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DataObjectsBlock holds the data-object catalogue.
const DataObjectsBlock = "data-objects"

// ObjectNameAttributeID is the implicit attribute naming the object itself.
const ObjectNameAttributeID = "__objectName__"

// Relation cardinalities.
const (
	CardinalityOne  = "one"
	CardinalityMany = "many"
)

// Attribute is one field of a data object.
type Attribute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Relation links a data object to another.
type Relation struct {
	Name        string `json:"name"`
	To          string `json:"to"`
	Cardinality string `json:"cardinality,omitempty"`
}

// Validate checks the relation shape.
func (r Relation) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.To, validation.Required),
		validation.Field(&r.Cardinality, validation.In(CardinalityOne, CardinalityMany)),
	)
}

// DataObjectData carries the object's schema.
type DataObjectData struct {
	Attributes []Attribute `json:"attributes,omitempty"`
	Relations  []Relation  `json:"relations,omitempty"`
}

// DataObject is one entry of the catalogue.
type DataObject struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Annotation string         `json:"annotation,omitempty"`
	Data       DataObjectData `json:"data"`
}

// Validate checks the object shape.
func (o DataObject) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.ID, validation.Required),
		validation.Field(&o.Name, validation.Required),
	)
}

// AttributeIDs returns the valid attribute ids of o, including the
// implicit object-name attribute.
func (o DataObject) AttributeIDs() map[string]bool {
	out := map[string]bool{ObjectNameAttributeID: true}
	for _, a := range o.Data.Attributes {
		if a.ID != "" {
			out[a.ID] = true
		}
	}
	return out
}

// DataObjects is the data-object registry.
type DataObjects struct {
	NextID  int          `json:"nextId"`
	Objects []DataObject `json:"objects"`
}

// Object looks an object up by id.
func (d *DataObjects) Object(id string) (*DataObject, bool) {
	for i := range d.Objects {
		if d.Objects[i].ID == id {
			return &d.Objects[i], true
		}
	}
	return nil, false
}

// Add appends a new object with the next "do-N" id.
func (d *DataObjects) Add(name string) DataObject {
	if d.NextID < 1 {
		d.NextID = 1
	}
	for {
		id := fmt.Sprintf("do-%d", d.NextID)
		d.NextID++
		if _, taken := d.Object(id); !taken {
			o := DataObject{ID: id, Name: name}
			d.Objects = append(d.Objects, o)
			return o
		}
	}
}

// DanglingRelations lists relations whose target object does not exist.
func (d *DataObjects) DanglingRelations() []string {
	var out []string
	for _, o := range d.Objects {
		for _, r := range o.Data.Relations {
			if _, ok := d.Object(r.To); !ok {
				out = append(out, fmt.Sprintf("%s.%s -> %s", o.ID, r.Name, r.To))
			}
		}
	}
	return out
}

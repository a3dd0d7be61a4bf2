package sharingd

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sharingd/sharingd/kit/platform/errors"
)

// Resource is the closed union of catalog payload variants, one per
// ObjectLabel. Every variant derives its ResourceName deterministically from
// its path fields and falls back from its UUID to its name when referenced.
type Resource interface {
	ObjectLabel() ObjectLabel
	ResourceName() ResourceName
	ResourceRef() ResourceRef

	isResource()
}

// Share is a named collection of schemas exposed to recipients.
type Share struct {
	ID         uuid.UUID
	Name       string
	Properties map[string]interface{}
}

// SharingSchema is a schema grouping tables inside a share.
type SharingSchema struct {
	ID         uuid.UUID
	Share      string
	Name       string
	Properties map[string]interface{}
}

// SharingTable is a table exposed through a share's schema.
type SharingTable struct {
	ID              uuid.UUID
	Share           string
	Schema          string
	Name            string
	StorageLocation string
	Properties      map[string]interface{}
}

// Credential holds a reference to externally stored access material.
type Credential struct {
	ID         uuid.UUID
	Name       string
	Purpose    string
	Properties map[string]interface{}
}

// Catalog is the top level of the provider-side namespace.
type Catalog struct {
	ID         uuid.UUID
	Name       string
	Properties map[string]interface{}
}

// Schema is a provider-side schema inside a catalog.
type Schema struct {
	ID         uuid.UUID
	Catalog    string
	Name       string
	Properties map[string]interface{}
}

// Table is a provider-side table inside a catalog schema.
type Table struct {
	ID              uuid.UUID
	Catalog         string
	Schema          string
	Name            string
	StorageLocation string
	Properties      map[string]interface{}
}

// ExternalLocation names a storage URL tables may live under.
type ExternalLocation struct {
	ID         uuid.UUID
	Name       string
	URL        string
	Properties map[string]interface{}
}

// Recipient is the catalog record for an externally authenticated caller.
type Recipient struct {
	ID                 uuid.UUID
	Name               string
	AuthenticationType string
	Properties         map[string]interface{}
}

// Column describes a single column of a table.
type Column struct {
	ID         uuid.UUID
	Name       string
	TypeName   string
	Nullable   bool
	Properties map[string]interface{}
}

func (*Share) isResource()            {}
func (*SharingSchema) isResource()    {}
func (*SharingTable) isResource()     {}
func (*Credential) isResource()       {}
func (*Catalog) isResource()          {}
func (*Schema) isResource()           {}
func (*Table) isResource()            {}
func (*ExternalLocation) isResource() {}
func (*Recipient) isResource()        {}
func (*Column) isResource()           {}

func (*Share) ObjectLabel() ObjectLabel            { return ObjectLabelShare }
func (*SharingSchema) ObjectLabel() ObjectLabel    { return ObjectLabelSharingSchema }
func (*SharingTable) ObjectLabel() ObjectLabel     { return ObjectLabelSharingTable }
func (*Credential) ObjectLabel() ObjectLabel       { return ObjectLabelCredential }
func (*Catalog) ObjectLabel() ObjectLabel          { return ObjectLabelCatalog }
func (*Schema) ObjectLabel() ObjectLabel           { return ObjectLabelSchema }
func (*Table) ObjectLabel() ObjectLabel            { return ObjectLabelTable }
func (*ExternalLocation) ObjectLabel() ObjectLabel { return ObjectLabelExternalLocation }
func (*Recipient) ObjectLabel() ObjectLabel        { return ObjectLabelRecipient }
func (*Column) ObjectLabel() ObjectLabel           { return ObjectLabelColumn }

func (s *Share) ResourceName() ResourceName            { return pathName(s.Name) }
func (s *SharingSchema) ResourceName() ResourceName    { return pathName(s.Share, s.Name) }
func (t *SharingTable) ResourceName() ResourceName     { return pathName(t.Share, t.Schema, t.Name) }
func (c *Credential) ResourceName() ResourceName       { return pathName(c.Name) }
func (c *Catalog) ResourceName() ResourceName          { return pathName(c.Name) }
func (s *Schema) ResourceName() ResourceName           { return pathName(s.Catalog, s.Name) }
func (t *Table) ResourceName() ResourceName            { return pathName(t.Catalog, t.Schema, t.Name) }
func (l *ExternalLocation) ResourceName() ResourceName { return pathName(l.Name) }
func (r *Recipient) ResourceName() ResourceName        { return pathName(r.Name) }
func (c *Column) ResourceName() ResourceName           { return pathName(c.Name) }

func (s *Share) ResourceRef() ResourceRef            { return refFor(s.ID, s) }
func (s *SharingSchema) ResourceRef() ResourceRef    { return refFor(s.ID, s) }
func (t *SharingTable) ResourceRef() ResourceRef     { return refFor(t.ID, t) }
func (c *Credential) ResourceRef() ResourceRef       { return refFor(c.ID, c) }
func (c *Catalog) ResourceRef() ResourceRef          { return refFor(c.ID, c) }
func (s *Schema) ResourceRef() ResourceRef           { return refFor(s.ID, s) }
func (t *Table) ResourceRef() ResourceRef            { return refFor(t.ID, t) }
func (l *ExternalLocation) ResourceRef() ResourceRef { return refFor(l.ID, l) }
func (r *Recipient) ResourceRef() ResourceRef        { return refFor(r.ID, r) }
func (c *Column) ResourceRef() ResourceRef           { return refFor(c.ID, c) }

// pathName assembles a name from raw path fields without validation; the
// store validates the derived name when the resource is written.
func pathName(segments ...string) ResourceName {
	n, err := NewResourceName(segments...)
	if err != nil {
		return ResourceName(segments)
	}
	return n
}

// refFor prefers the minted UUID and falls back to the name for resources
// that have not been stored yet.
func refFor(id uuid.UUID, r Resource) ResourceRef {
	if id != uuid.Nil {
		return UUIDRef(id)
	}
	return NameRef(r.ResourceName())
}

// Object is the generic record every payload variant converts to and from.
// Store backends persist Objects; the typed variants are reconstructed at
// the contract boundary.
type Object struct {
	ID         uuid.UUID
	Label      ObjectLabel
	Name       ResourceName
	Properties map[string]interface{}
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Property keys reserved for variant fields that are flattened into the
// generic record.
const (
	propStorageLocation    = "storage_location"
	propPurpose            = "purpose"
	propURL                = "url"
	propAuthenticationType = "authentication_type"
	propTypeName           = "type_name"
	propNullable           = "nullable"
)

// ObjectFromResource converts a payload variant into its generic record,
// validating the derived name. The conversion is exhaustive over the closed
// set of labels.
func ObjectFromResource(r Resource) (*Object, error) {
	name, err := NewResourceName(r.ResourceName()...)
	if err != nil {
		return nil, err
	}

	o := &Object{
		Label: r.ObjectLabel(),
		Name:  name,
	}

	switch t := r.(type) {
	case *Share:
		o.ID = t.ID
		o.Properties = copyProperties(t.Properties)
	case *SharingSchema:
		o.ID = t.ID
		o.Properties = copyProperties(t.Properties)
	case *SharingTable:
		o.ID = t.ID
		o.Properties = putString(t.Properties, propStorageLocation, t.StorageLocation)
	case *Credential:
		o.ID = t.ID
		o.Properties = putString(t.Properties, propPurpose, t.Purpose)
	case *Catalog:
		o.ID = t.ID
		o.Properties = copyProperties(t.Properties)
	case *Schema:
		o.ID = t.ID
		o.Properties = copyProperties(t.Properties)
	case *Table:
		o.ID = t.ID
		o.Properties = putString(t.Properties, propStorageLocation, t.StorageLocation)
	case *ExternalLocation:
		o.ID = t.ID
		o.Properties = putString(t.Properties, propURL, t.URL)
	case *Recipient:
		o.ID = t.ID
		o.Properties = putString(t.Properties, propAuthenticationType, t.AuthenticationType)
	case *Column:
		o.ID = t.ID
		o.Properties = putString(t.Properties, propTypeName, t.TypeName)
		if t.Nullable {
			o.Properties = putBool(o.Properties, propNullable, t.Nullable)
		}
	default:
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("unknown resource variant %T", r),
		}
	}

	return o, nil
}

// Resource reconstructs the typed payload variant from the generic record.
func (o *Object) Resource() (Resource, error) {
	segs, err := o.segments()
	if err != nil {
		return nil, err
	}

	switch o.Label {
	case ObjectLabelShare:
		return &Share{ID: o.ID, Name: segs[0], Properties: copyProperties(o.Properties)}, nil
	case ObjectLabelSharingSchema:
		return &SharingSchema{ID: o.ID, Share: segs[0], Name: segs[1], Properties: copyProperties(o.Properties)}, nil
	case ObjectLabelSharingTable:
		loc, props := popString(o.Properties, propStorageLocation)
		return &SharingTable{ID: o.ID, Share: segs[0], Schema: segs[1], Name: segs[2], StorageLocation: loc, Properties: props}, nil
	case ObjectLabelCredential:
		purpose, props := popString(o.Properties, propPurpose)
		return &Credential{ID: o.ID, Name: segs[0], Purpose: purpose, Properties: props}, nil
	case ObjectLabelCatalog:
		return &Catalog{ID: o.ID, Name: segs[0], Properties: copyProperties(o.Properties)}, nil
	case ObjectLabelSchema:
		return &Schema{ID: o.ID, Catalog: segs[0], Name: segs[1], Properties: copyProperties(o.Properties)}, nil
	case ObjectLabelTable:
		loc, props := popString(o.Properties, propStorageLocation)
		return &Table{ID: o.ID, Catalog: segs[0], Schema: segs[1], Name: segs[2], StorageLocation: loc, Properties: props}, nil
	case ObjectLabelExternalLocation:
		url, props := popString(o.Properties, propURL)
		return &ExternalLocation{ID: o.ID, Name: segs[0], URL: url, Properties: props}, nil
	case ObjectLabelRecipient:
		authType, props := popString(o.Properties, propAuthenticationType)
		return &Recipient{ID: o.ID, Name: segs[0], AuthenticationType: authType, Properties: props}, nil
	case ObjectLabelColumn:
		typeName, props := popString(o.Properties, propTypeName)
		nullable, props := popBool(props, propNullable)
		return &Column{ID: o.ID, Name: segs[0], TypeName: typeName, Nullable: nullable, Properties: props}, nil
	}

	return nil, &errors.Error{
		Code: errors.EInvalid,
		Msg:  fmt.Sprintf("unknown object label %q", o.Label),
	}
}

// segments validates that the stored name has the arity its label requires.
func (o *Object) segments() (ResourceName, error) {
	want := 1
	switch o.Label {
	case ObjectLabelSharingSchema, ObjectLabelSchema:
		want = 2
	case ObjectLabelSharingTable, ObjectLabelTable:
		want = 3
	}
	if len(o.Name) != want {
		return nil, &errors.Error{
			Code: errors.EInternal,
			Msg:  fmt.Sprintf("object %q of label %q must have %d name segments", o.Name, o.Label, want),
		}
	}
	return o.Name, nil
}

func copyProperties(props map[string]interface{}) map[string]interface{} {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// putString copies props with key set, when val is non-empty.
func putString(props map[string]interface{}, key, val string) map[string]interface{} {
	out := copyProperties(props)
	if val == "" {
		return out
	}
	if out == nil {
		out = make(map[string]interface{}, 1)
	}
	out[key] = val
	return out
}

func putBool(props map[string]interface{}, key string, val bool) map[string]interface{} {
	out := copyProperties(props)
	if out == nil {
		out = make(map[string]interface{}, 1)
	}
	out[key] = val
	return out
}

// popString removes key from a copy of props, returning its string value.
func popString(props map[string]interface{}, key string) (string, map[string]interface{}) {
	out := copyProperties(props)
	v, ok := out[key]
	if !ok {
		return "", out
	}
	delete(out, key)
	if len(out) == 0 {
		out = nil
	}
	s, _ := v.(string)
	return s, out
}

func popBool(props map[string]interface{}, key string) (bool, map[string]interface{}) {
	out := copyProperties(props)
	v, ok := out[key]
	if !ok {
		return false, out
	}
	delete(out, key)
	if len(out) == 0 {
		out = nil
	}
	b, _ := v.(bool)
	return b, out
}

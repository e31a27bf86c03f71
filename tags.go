package topicgraph

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
)

// entityMetadata is the parsed `crud` tag information of one struct type.
type entityMetadata struct {
	// Label is the node label: the struct name unless a `label:` component
	// overrides it on the key field.
	Label string
	// KeyField is the struct field marked `pk`; KeyProp its node property.
	KeyField string
	KeyProp  string
	// Mappings maps struct field names to node property names.
	Mappings map[string]string
}

// identifier matches labels, relationship types and property names that may
// be written into a query without escaping.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var metaCache sync.Map // reflect.Type -> *entityMetadata

// metadataFor returns the cached metadata of typ, parsing it on first use.
func metadataFor(typ reflect.Type) (*entityMetadata, error) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if cached, ok := metaCache.Load(typ); ok {
		return cached.(*entityMetadata), nil
	}
	meta, err := parseTagsFromType(typ)
	if err != nil {
		return nil, err
	}
	actual, _ := metaCache.LoadOrStore(typ, meta)
	return actual.(*entityMetadata), nil
}

// parseTagsFromType extracts persistence metadata from the `crud` tags of a
// struct type. Recognised components: `pk`, `property:<name>` and
// `label:<Label>`.
func parseTagsFromType(typ reflect.Type) (*entityMetadata, error) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type %s is not a struct", typ.Name())
	}

	meta := &entityMetadata{
		Label:    typ.Name(),
		Mappings: make(map[string]string),
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("crud")
		if tag == "" {
			continue
		}

		isKey := false
		propName := ""
		for _, part := range strings.Split(tag, ",") {
			switch {
			case part == "pk":
				isKey = true
			case strings.HasPrefix(part, "property:"):
				propName = strings.TrimPrefix(part, "property:")
			case strings.HasPrefix(part, "label:"):
				meta.Label = strings.TrimPrefix(part, "label:")
			}
		}

		if propName == "" {
			return nil, fmt.Errorf("field %s is missing 'property' tag component", field.Name)
		}
		if !identifier.MatchString(propName) {
			return nil, fmt.Errorf("field %s: invalid property name %q", field.Name, propName)
		}

		if isKey {
			if meta.KeyField != "" {
				return nil, fmt.Errorf("struct %s declares more than one 'pk' field", typ.Name())
			}
			meta.KeyField = field.Name
			meta.KeyProp = propName
		}
		meta.Mappings[field.Name] = propName
	}

	if meta.KeyField == "" {
		return nil, fmt.Errorf("no primary key ('pk') tag defined for struct %s", typ.Name())
	}
	if !identifier.MatchString(meta.Label) {
		return nil, fmt.Errorf("struct %s: invalid label %q", typ.Name(), meta.Label)
	}

	return meta, nil
}

// parseTags is the generic form of metadataFor.
func parseTags[T any]() (*entityMetadata, error) {
	return metadataFor(reflect.TypeOf((*T)(nil)).Elem())
}

// keyOf returns the metadata and merge key value of entity, which must be a
// non-nil pointer to a tagged struct.
func keyOf(entity any) (*entityMetadata, any, error) {
	val := reflect.ValueOf(entity)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return nil, nil, fmt.Errorf("entity must be a non-nil pointer")
	}
	meta, err := metadataFor(val.Type())
	if err != nil {
		return nil, nil, err
	}
	return meta, val.Elem().FieldByName(meta.KeyField).Interface(), nil
}

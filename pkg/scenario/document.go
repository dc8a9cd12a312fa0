package scenario

// Document is the dynamic nested key/value form of a calculation view
// definition. Fields that sometimes appear as a single object and sometimes
// as a list are normalized by List; nothing outside this type branches on
// document shape.
type Document map[string]any

// Map returns the nested document at key, or nil if the value is absent or
// not an object.
func (d Document) Map(key string) Document {
	switch v := d[key].(type) {
	case Document:
		return v
	case map[string]any:
		return Document(v)
	default:
		return nil
	}
}

// List returns the documents at key as an ordered slice. A single object is
// returned as a one-element slice, a list keeps its order with non-object
// entries dropped, and anything else yields an empty slice.
func (d Document) List(key string) []Document {
	switch v := d[key].(type) {
	case Document:
		return []Document{v}
	case map[string]any:
		return []Document{Document(v)}
	case []any:
		docs := make([]Document, 0, len(v))
		for _, item := range v {
			switch m := item.(type) {
			case Document:
				docs = append(docs, m)
			case map[string]any:
				docs = append(docs, Document(m))
			}
		}
		return docs
	default:
		return nil
	}
}

// Str returns the string value at key, or "" if absent or not a string.
func (d Document) Str(key string) string {
	s, _ := d[key].(string)
	return s
}

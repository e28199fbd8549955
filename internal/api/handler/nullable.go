package handler

import (
	"encoding/json"
	"reflect"
)

// nullableString tells apart a missing JSON field, an explicit null and a
// string value.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// nullableStringValue exposes the inner string to validator tags; null
// and missing validate as empty.
func nullableStringValue(field reflect.Value) any {
	n, ok := field.Interface().(nullableString)
	if !ok || n.Value == nil {
		return ""
	}
	return *n.Value
}

package resolve

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/agentic-research/pubsubconf/internal/nodespace"
)

// Extension decodes a scalar structured value of the given data type. The
// body may already be a decoded T (or *T), or raw JSON from a snapshot.
func Extension[T any](v any, typeID nodespace.NodeID) (T, error) {
	var zero T
	shape := nodespace.TypeName(typeID)
	switch t := v.(type) {
	case T:
		return t, nil
	case *T:
		if t == nil {
			return zero, malformed(shape, v)
		}
		return *t, nil
	case nodespace.ExtensionObject:
		if !t.TypeID.IsNull() && t.TypeID != typeID {
			return zero, malformed(shape, v)
		}
		return extensionBody[T](t.Body, shape)
	}
	return zero, malformed(shape, v)
}

func extensionBody[T any](body any, shape string) (T, error) {
	var zero T
	switch b := body.(type) {
	case T:
		return b, nil
	case *T:
		if b != nil {
			return *b, nil
		}
	case json.RawMessage:
		return decodeBody[T](b, shape)
	case []byte:
		return decodeBody[T](b, shape)
	}
	return zero, &MalformedValueError{Shape: shape, Got: "body " + typeOf(body)}
}

func decodeBody[T any](raw []byte, shape string) (T, error) {
	var out T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, &MalformedValueError{Shape: shape, Got: "undecodable body: " + err.Error()}
	}
	return out, nil
}

// ExtensionArray decodes an array of structured values element by element.
// A null value is an empty array. Elements that fail are reported in errs
// at their index and left as zero values in out; err is set only when v is
// not an array at all.
func ExtensionArray[T any](v any, typeID nodespace.NodeID) (out []T, errs []error, err error) {
	switch t := v.(type) {
	case nil:
		return nil, nil, nil
	case []T:
		return t, make([]error, len(t)), nil
	case []nodespace.ExtensionObject:
		out = make([]T, len(t))
		errs = make([]error, len(t))
		for i, eo := range t {
			out[i], errs[i] = Extension[T](eo, typeID)
		}
		return out, errs, nil
	}
	return nil, nil, malformed(nodespace.TypeName(typeID)+"[]", v)
}

// ExtensionArrayStrict is ExtensionArray that fails on the first bad element.
func ExtensionArrayStrict[T any](v any, typeID nodespace.NodeID) ([]T, error) {
	out, errs, err := ExtensionArray[T](v, typeID)
	if err != nil {
		return nil, err
	}
	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}
	return out, nil
}

func MetaData(v any) (nodespace.DataSetMetaData, error) {
	return Extension[nodespace.DataSetMetaData](v, nodespace.TypeIDDataSetMetaData)
}

func ConfigurationVersion(v any) (nodespace.ConfigurationVersion, error) {
	return Extension[nodespace.ConfigurationVersion](v, nodespace.TypeIDConfigurationVersion)
}

// FieldTargets decodes a reader's target variables. Malformed entries are
// skipped and returned in errs as *ElementError.
func FieldTargets(v any) (targets []nodespace.FieldTargetData, errs []error, err error) {
	return wellFormed[nodespace.FieldTargetData](v, nodespace.TypeIDFieldTargetData)
}

func PublishedVariables(v any) ([]nodespace.PublishedVariableData, error) {
	return ExtensionArrayStrict[nodespace.PublishedVariableData](v, nodespace.TypeIDPublishedVariableData)
}

// KeyValues decodes a property list. Malformed entries are skipped and
// returned in errs as *ElementError so the caller can warn about each one.
func KeyValues(v any) (pairs []nodespace.KeyValuePair, errs []error, err error) {
	return wellFormed[nodespace.KeyValuePair](v, nodespace.TypeIDKeyValuePair)
}

func wellFormed[T any](v any, typeID nodespace.NodeID) (out []T, errs []error, err error) {
	all, elemErrs, err := ExtensionArray[T](v, typeID)
	if err != nil {
		return nil, nil, err
	}
	for i, item := range all {
		if elemErrs[i] != nil {
			errs = append(errs, &ElementError{Index: i, Err: elemErrs[i]})
			continue
		}
		out = append(out, item)
	}
	return out, errs, nil
}

func typeOf(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

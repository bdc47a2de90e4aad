package nodespace

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// encodedValue is the snapshot form of a variant value. The Type field keeps
// integer widths intact, which JSON numbers alone would lose.
type encodedValue struct {
	Type  string          `json:"Type"`
	Array bool            `json:"Array,omitempty"`
	Value json.RawMessage `json:"Value"`
}

type encodedExtension struct {
	TypeID NodeID          `json:"TypeId"`
	Body   json.RawMessage `json:"Body"`
}

// EncodeValue renders a variant value in snapshot JSON. A nil value encodes as null.
func EncodeValue(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	typ, array, payload, err := encodePayload(v)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s value: %w", typ, err)
	}
	return json.Marshal(encodedValue{Type: typ, Array: array, Value: raw})
}

func encodePayload(v any) (string, bool, any, error) {
	switch t := v.(type) {
	case bool:
		return "Boolean", false, t, nil
	case uint8:
		return "Byte", false, t, nil
	case uint16:
		return "UInt16", false, t, nil
	case uint32:
		return "UInt32", false, t, nil
	case uint64:
		return "UInt64", false, t, nil
	case int32:
		return "Int32", false, t, nil
	case int64:
		return "Int64", false, t, nil
	case float32:
		return "Float", false, t, nil
	case float64:
		return "Double", false, t, nil
	case string:
		return "String", false, t, nil
	case NodeID:
		return "NodeId", false, t, nil
	case QualifiedName:
		return "QualifiedName", false, t, nil
	case ExtensionObject:
		return "ExtensionObject", false, encodedExtensionOf(t), nil
	case []string:
		return "String", true, t, nil
	case []uint32:
		return "UInt32", true, t, nil
	case []float64:
		return "Double", true, t, nil
	case []ExtensionObject:
		out := make([]encodedExtension, len(t))
		for i, eo := range t {
			out[i] = encodedExtensionOf(eo)
		}
		return "ExtensionObject", true, out, nil
	default:
		return "", false, nil, fmt.Errorf("encode value: unsupported type %T", v)
	}
}

func encodedExtensionOf(eo ExtensionObject) encodedExtension {
	var body json.RawMessage
	switch b := eo.Body.(type) {
	case json.RawMessage:
		body = b
	case []byte:
		body = b
	default:
		var err error
		body, err = json.Marshal(b)
		if err != nil {
			body = json.RawMessage("null")
		}
	}
	return encodedExtension{TypeID: eo.TypeID, Body: body}
}

// DecodeValue parses snapshot JSON back into a Go value. ExtensionObject
// bodies stay as json.RawMessage; resolving them is the reader's job.
func DecodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var ev encodedValue
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	if ev.Array {
		return decodeArray(ev)
	}
	return decodeScalar(ev.Type, ev.Value)
}

func decodeScalar(typ string, raw json.RawMessage) (any, error) {
	switch typ {
	case "Boolean":
		return decodeAs[bool](typ, raw)
	case "Byte":
		return decodeAs[uint8](typ, raw)
	case "UInt16":
		return decodeAs[uint16](typ, raw)
	case "UInt32":
		return decodeAs[uint32](typ, raw)
	case "UInt64":
		return decodeAs[uint64](typ, raw)
	case "Int32":
		return decodeAs[int32](typ, raw)
	case "Int64":
		return decodeAs[int64](typ, raw)
	case "Float":
		return decodeAs[float32](typ, raw)
	case "Double":
		return decodeAs[float64](typ, raw)
	case "String":
		return decodeAs[string](typ, raw)
	case "NodeId":
		return decodeAs[NodeID](typ, raw)
	case "QualifiedName":
		return decodeAs[QualifiedName](typ, raw)
	case "ExtensionObject":
		ee, err := decodeAs[encodedExtension](typ, raw)
		if err != nil {
			return nil, err
		}
		return ExtensionObject{TypeID: ee.TypeID, Body: compactBody(ee.Body)}, nil
	default:
		return nil, fmt.Errorf("decode value: unsupported type %q", typ)
	}
}

func decodeArray(ev encodedValue) (any, error) {
	switch ev.Type {
	case "String":
		return decodeAs[[]string](ev.Type, ev.Value)
	case "UInt32":
		return decodeAs[[]uint32](ev.Type, ev.Value)
	case "Double":
		return decodeAs[[]float64](ev.Type, ev.Value)
	case "ExtensionObject":
		ees, err := decodeAs[[]encodedExtension](ev.Type, ev.Value)
		if err != nil {
			return nil, err
		}
		out := make([]ExtensionObject, len(ees))
		for i, ee := range ees {
			out[i] = ExtensionObject{TypeID: ee.TypeID, Body: compactBody(ee.Body)}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("decode value: unsupported array type %q", ev.Type)
	}
}

// compactBody strips the layout whitespace an indented snapshot leaves in
// raw bodies, so equal bodies compare equal whatever file they came from.
func compactBody(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

func decodeAs[T any](typ string, raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s value: %w", typ, err)
	}
	return v, nil
}

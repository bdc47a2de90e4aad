package synth

import (
	"encoding/json"
	"fmt"

	"github.com/agentic-research/pubsubconf/api"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/resolve"
)

func publisherID(v any) (api.PublisherID, error) {
	id, ok := api.PublisherIDFromValue(v)
	if !ok {
		return api.PublisherID{}, &resolve.MalformedValueError{Shape: "UInt16|UInt64", Got: fmt.Sprintf("%T", v)}
	}
	return id, nil
}

// enabledState converts a PubSubState. Anything but Disabled (0) is enabled.
func enabledState(v any) (bool, error) {
	state, err := resolve.Int32(v)
	if err != nil {
		return false, err
	}
	return state != 0, nil
}

func configurationVersion(v nodespace.ConfigurationVersion) api.ConfigurationVersion {
	return api.ConfigurationVersion{Major: v.MajorVersion, Minor: v.MinorVersion}
}

func metaData(md nodespace.DataSetMetaData) api.DataSetMetaData {
	fields := make([]api.FieldMetaData, len(md.Fields))
	for i, f := range md.Fields {
		fields[i] = api.FieldMetaData{
			Name:            f.Name,
			Description:     f.Description,
			BuiltInType:     f.BuiltInType,
			DataType:        f.DataType.String(),
			ValueRank:       f.ValueRank,
			FieldFlags:      f.FieldFlags,
			ArrayDimensions: f.ArrayDimensions,
			MaxStringLength: f.MaxStringLength,
			DataSetFieldID:  f.DataSetFieldID,
		}
	}
	return api.DataSetMetaData{
		Name:                 md.Name,
		Description:          md.Description,
		DataSetClassID:       md.DataSetClassID,
		Fields:               fields,
		ConfigurationVersion: configurationVersion(md.ConfigurationVersion),
	}
}

func metaDataValue(v any) (api.DataSetMetaData, error) {
	md, err := resolve.MetaData(v)
	if err != nil {
		return api.DataSetMetaData{}, err
	}
	return metaData(md), nil
}

func metaDataPointer(v any) (*api.DataSetMetaData, error) {
	md, err := metaDataValue(v)
	if err != nil {
		return nil, err
	}
	return &md, nil
}

func configurationVersionValue(v any) (api.ConfigurationVersion, error) {
	cv, err := resolve.ConfigurationVersion(v)
	if err != nil {
		return api.ConfigurationVersion{}, err
	}
	return configurationVersion(cv), nil
}

func fieldTarget(t nodespace.FieldTargetData) api.FieldTarget {
	return api.FieldTarget{
		DataSetFieldID:        t.DataSetFieldID,
		ReceiverIndexRange:    t.ReceiverIndexRange,
		TargetNodeID:          t.TargetNodeID.String(),
		AttributeID:           uint32(t.AttributeID),
		WriteIndexRange:       t.WriteIndexRange,
		OverrideValueHandling: t.OverrideValueHandling,
	}
}

func publishedData(v any) ([]api.PublishedVariable, error) {
	vars, err := resolve.PublishedVariables(v)
	if err != nil {
		return nil, err
	}
	out := make([]api.PublishedVariable, len(vars))
	for i, pv := range vars {
		out[i] = api.PublishedVariable{
			PublishedVariable:    pv.PublishedVariable.String(),
			AttributeID:          uint32(pv.AttributeID),
			SamplingIntervalHint: pv.SamplingIntervalHint,
			DeadbandType:         pv.DeadbandType,
			DeadbandValue:        pv.DeadbandValue,
			IndexRange:           pv.IndexRange,
		}
	}
	return out, nil
}

// plainValue turns node-space values into something JSON and YAML render
// without custom marshalers.
func plainValue(v any) any {
	switch t := v.(type) {
	case nodespace.NodeID:
		return t.String()
	case nodespace.QualifiedName:
		return t.String()
	case nodespace.ExtensionObject:
		body := t.Body
		if raw, ok := body.(json.RawMessage); ok {
			var decoded any
			if err := json.Unmarshal(raw, &decoded); err == nil {
				body = decoded
			}
		}
		return map[string]any{"type": nodespace.TypeName(t.TypeID), "body": body}
	default:
		return v
	}
}

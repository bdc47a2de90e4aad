package nodespace

import "fmt"

// StatusCode is the per-value status reported by a Read.
type StatusCode uint32

const (
	StatusGood                  StatusCode = 0x00000000
	StatusUncertain             StatusCode = 0x40000000
	StatusBadUnexpectedError    StatusCode = 0x80010000
	StatusBadNodeIDUnknown      StatusCode = 0x80340000
	StatusBadAttributeIDInvalid StatusCode = 0x80350000
	StatusBadNotReadable        StatusCode = 0x803A0000
	StatusBadNoMatch            StatusCode = 0x806F0000
	StatusBadTypeMismatch       StatusCode = 0x80740000
	StatusBadWaitingForInitial  StatusCode = 0x80320000
)

var statusNames = map[StatusCode]string{
	StatusGood:                  "Good",
	StatusUncertain:             "Uncertain",
	StatusBadUnexpectedError:    "BadUnexpectedError",
	StatusBadNodeIDUnknown:      "BadNodeIdUnknown",
	StatusBadAttributeIDInvalid: "BadAttributeIdInvalid",
	StatusBadNotReadable:        "BadNotReadable",
	StatusBadNoMatch:            "BadNoMatch",
	StatusBadTypeMismatch:       "BadTypeMismatch",
	StatusBadWaitingForInitial:  "BadWaitingForInitialData",
}

// IsGood reports whether the severity bits are Good. Uncertain is not good.
func (c StatusCode) IsGood() bool {
	return c&0xC0000000 == 0
}

func (c StatusCode) String() string {
	if name, ok := statusNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", uint32(c))
}

// AttributeID selects which attribute of a node a Read returns.
type AttributeID uint32

const (
	AttributeNodeID      AttributeID = 1
	AttributeBrowseName  AttributeID = 3
	AttributeDisplayName AttributeID = 4
	AttributeValue       AttributeID = 13
	AttributeDataType    AttributeID = 14
)

func (a AttributeID) String() string {
	switch a {
	case AttributeNodeID:
		return "NodeId"
	case AttributeBrowseName:
		return "BrowseName"
	case AttributeDisplayName:
		return "DisplayName"
	case AttributeValue:
		return "Value"
	case AttributeDataType:
		return "DataType"
	default:
		return fmt.Sprintf("Attribute(%d)", uint32(a))
	}
}

// DataValue is a value together with its status.
type DataValue struct {
	Value  any
	Status StatusCode
}

// ReadRequest names one (node, attribute) pair of a batched Read.
// Handle is echoed back in the matching ReadResult.
type ReadRequest struct {
	Node      NodeID
	Attribute AttributeID
	Handle    uint32
}

// ReadResult is one entry of a batched Read response.
type ReadResult struct {
	Handle uint32
	DataValue
}

// ExtensionObject is a structured value whose layout is identified by TypeID.
// Body is either the decoded Go struct or the undecoded JSON body.
type ExtensionObject struct {
	TypeID NodeID
	Body   any
}

// Data type ids (namespace 0) of the structured values used by PubSub configuration.
var (
	TypeIDKeyValuePair          = Numeric(0, 14533)
	TypeIDDataSetMetaData       = Numeric(0, 14523)
	TypeIDFieldMetaData         = Numeric(0, 14524)
	TypeIDConfigurationVersion  = Numeric(0, 14593)
	TypeIDPublishedVariableData = Numeric(0, 14273)
	TypeIDFieldTargetData       = Numeric(0, 14744)
)

var typeNames = map[NodeID]string{
	TypeIDKeyValuePair:          "KeyValuePair",
	TypeIDDataSetMetaData:       "DataSetMetaDataType",
	TypeIDFieldMetaData:         "FieldMetaData",
	TypeIDConfigurationVersion:  "ConfigurationVersionDataType",
	TypeIDPublishedVariableData: "PublishedVariableDataType",
	TypeIDFieldTargetData:       "FieldTargetDataType",
}

// TypeName returns the structure name for a known data type id, or its text form.
func TypeName(id NodeID) string {
	if name, ok := typeNames[id]; ok {
		return name
	}
	return id.String()
}

// ConfigurationVersion is ConfigurationVersionDataType.
type ConfigurationVersion struct {
	MajorVersion uint32 `json:"MajorVersion"`
	MinorVersion uint32 `json:"MinorVersion"`
}

// FieldMetaData describes one field of a dataset.
type FieldMetaData struct {
	Name            string   `json:"Name"`
	Description     string   `json:"Description,omitempty"`
	FieldFlags      uint16   `json:"FieldFlags,omitempty"`
	BuiltInType     uint8    `json:"BuiltInType"`
	DataType        NodeID   `json:"DataType"`
	ValueRank       int32    `json:"ValueRank"`
	ArrayDimensions []uint32 `json:"ArrayDimensions,omitempty"`
	MaxStringLength uint32   `json:"MaxStringLength,omitempty"`
	DataSetFieldID  string   `json:"DataSetFieldId,omitempty"`
}

// DataSetMetaData is DataSetMetaDataType.
type DataSetMetaData struct {
	Name                 string               `json:"Name"`
	Description          string               `json:"Description,omitempty"`
	Fields               []FieldMetaData      `json:"Fields"`
	DataSetClassID       string               `json:"DataSetClassId,omitempty"`
	ConfigurationVersion ConfigurationVersion `json:"ConfigurationVersion"`
}

// FieldTargetData binds one incoming dataset field to a local variable.
type FieldTargetData struct {
	DataSetFieldID        string      `json:"DataSetFieldId"`
	ReceiverIndexRange    string      `json:"ReceiverIndexRange,omitempty"`
	TargetNodeID          NodeID      `json:"TargetNodeId"`
	AttributeID           AttributeID `json:"AttributeId"`
	WriteIndexRange       string      `json:"WriteIndexRange,omitempty"`
	OverrideValueHandling int32       `json:"OverrideValueHandling,omitempty"`
}

// KeyValuePair is a property entry.
type KeyValuePair struct {
	Key   QualifiedName `json:"Key"`
	Value any           `json:"Value"`
}

// PublishedVariableData is PublishedVariableDataType.
type PublishedVariableData struct {
	PublishedVariable    NodeID          `json:"PublishedVariable"`
	AttributeID          AttributeID     `json:"AttributeId"`
	SamplingIntervalHint float64         `json:"SamplingIntervalHint"`
	DeadbandType         uint32          `json:"DeadbandType,omitempty"`
	DeadbandValue        float64         `json:"DeadbandValue,omitempty"`
	IndexRange           string          `json:"IndexRange,omitempty"`
	MetaDataProperties   []QualifiedName `json:"MetaDataProperties,omitempty"`
}

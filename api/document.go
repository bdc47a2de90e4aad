package api

// Document is the reconstructed PubSub configuration.
// It holds no live node identities; every reference is resolved by value.
type Document struct {
	// Connections in the order the root Browse returned them.
	Connections []Connection `json:"connections" yaml:"connections"`
	// PublishedDataSets in depth-first discovery order.
	PublishedDataSets []PublishedDataSet `json:"published_data_sets" yaml:"published_data_sets"`
}

// Connection is one PubSubConnection.
type Connection struct {
	Name                string        `json:"name" yaml:"name"`
	Enabled             bool          `json:"enabled" yaml:"enabled"`
	PublisherID         PublisherID   `json:"publisher_id" yaml:"publisher_id"`
	TransportProfileURI string        `json:"transport_profile_uri" yaml:"transport_profile_uri"`
	Address             Address       `json:"address" yaml:"address"`
	Properties          []KeyValue    `json:"properties,omitempty" yaml:"properties,omitempty"`
	ReaderGroups        []ReaderGroup `json:"reader_groups" yaml:"reader_groups"`
	WriterGroups        []WriterGroup `json:"writer_groups" yaml:"writer_groups"`
}

// Address is a NetworkAddressUrl.
type Address struct {
	NetworkInterface string `json:"network_interface,omitempty" yaml:"network_interface,omitempty"`
	URL              string `json:"url" yaml:"url"`
}

// ReaderGroup owns DataSetReaders sharing transport and message settings.
type ReaderGroup struct {
	Name                  string            `json:"name" yaml:"name"`
	Enabled               bool              `json:"enabled" yaml:"enabled"`
	MaxNetworkMessageSize uint32            `json:"max_network_message_size" yaml:"max_network_message_size"`
	MessageSettings       MessageSettings   `json:"message_settings" yaml:"message_settings"`
	TransportSettings     TransportSettings `json:"transport_settings" yaml:"transport_settings"`
	Properties            []KeyValue        `json:"properties,omitempty" yaml:"properties,omitempty"`
	DataSetReaders        []DataSetReader   `json:"data_set_readers" yaml:"data_set_readers"`
}

// WriterGroup owns DataSetWriters published in the same network messages.
type WriterGroup struct {
	Name                  string            `json:"name" yaml:"name"`
	Enabled               bool              `json:"enabled" yaml:"enabled"`
	WriterGroupID         uint16            `json:"writer_group_id" yaml:"writer_group_id"`
	PublishingInterval    float64           `json:"publishing_interval" yaml:"publishing_interval"` // ms
	KeepAliveTime         float64           `json:"keep_alive_time" yaml:"keep_alive_time"`         // ms
	Priority              uint8             `json:"priority" yaml:"priority"`
	HeaderLayoutURI       string            `json:"header_layout_uri,omitempty" yaml:"header_layout_uri,omitempty"`
	MaxNetworkMessageSize uint32            `json:"max_network_message_size" yaml:"max_network_message_size"`
	LocaleIDs             []string          `json:"locale_ids,omitempty" yaml:"locale_ids,omitempty"`
	MessageSettings       MessageSettings   `json:"message_settings" yaml:"message_settings"`
	TransportSettings     TransportSettings `json:"transport_settings" yaml:"transport_settings"`
	Properties            []KeyValue        `json:"properties,omitempty" yaml:"properties,omitempty"`
	DataSetWriters        []DataSetWriter   `json:"data_set_writers" yaml:"data_set_writers"`
}

// DataSetWriter publishes one PublishedDataSet.
type DataSetWriter struct {
	Name                    string            `json:"name" yaml:"name"`
	Enabled                 bool              `json:"enabled" yaml:"enabled"`
	DataSetWriterID         uint16            `json:"data_set_writer_id" yaml:"data_set_writer_id"`
	DataSetName             string            `json:"data_set_name" yaml:"data_set_name"`
	DataSetFieldContentMask uint32            `json:"data_set_field_content_mask" yaml:"data_set_field_content_mask"`
	KeyFrameCount           uint32            `json:"key_frame_count" yaml:"key_frame_count"`
	DataSetMetaData         *DataSetMetaData  `json:"data_set_meta_data,omitempty" yaml:"data_set_meta_data,omitempty"`
	MessageSettings         MessageSettings   `json:"message_settings" yaml:"message_settings"`
	TransportSettings       TransportSettings `json:"transport_settings" yaml:"transport_settings"`
	Properties              []KeyValue        `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// DataSetReader subscribes to one DataSetWriter of a remote publisher.
type DataSetReader struct {
	Name                    string            `json:"name" yaml:"name"`
	Enabled                 bool              `json:"enabled" yaml:"enabled"`
	PublisherID             PublisherID       `json:"publisher_id" yaml:"publisher_id"`
	WriterGroupID           uint16            `json:"writer_group_id" yaml:"writer_group_id"`
	DataSetWriterID         uint16            `json:"data_set_writer_id" yaml:"data_set_writer_id"`
	DataSetMetaData         DataSetMetaData   `json:"data_set_meta_data" yaml:"data_set_meta_data"`
	DataSetFieldContentMask uint32            `json:"data_set_field_content_mask" yaml:"data_set_field_content_mask"`
	MessageReceiveTimeout   float64           `json:"message_receive_timeout" yaml:"message_receive_timeout"` // ms
	KeyFrameCount           uint32            `json:"key_frame_count,omitempty" yaml:"key_frame_count,omitempty"`
	HeaderLayoutURI         string            `json:"header_layout_uri,omitempty" yaml:"header_layout_uri,omitempty"`
	MessageSettings         MessageSettings   `json:"message_settings" yaml:"message_settings"`
	TransportSettings       TransportSettings `json:"transport_settings" yaml:"transport_settings"`
	TargetVariables         []FieldTarget     `json:"target_variables,omitempty" yaml:"target_variables,omitempty"`
	Properties              []KeyValue        `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// PublishedDataSet is a PublishedDataItems node and the folders above it.
type PublishedDataSet struct {
	Name string `json:"name" yaml:"name"`
	// DataSetFolder is the folder path from the dataset container down, outermost first.
	DataSetFolder        []string             `json:"data_set_folder" yaml:"data_set_folder"`
	ConfigurationVersion ConfigurationVersion `json:"configuration_version" yaml:"configuration_version"`
	DataSetMetaData      DataSetMetaData      `json:"data_set_meta_data" yaml:"data_set_meta_data"`
	PublishedData        []PublishedVariable  `json:"published_data" yaml:"published_data"`
	ExtensionFields      []KeyValue           `json:"extension_fields,omitempty" yaml:"extension_fields,omitempty"`
}

// ConfigurationVersion pairs major and minor version numbers.
type ConfigurationVersion struct {
	Major uint32 `json:"major" yaml:"major"`
	Minor uint32 `json:"minor" yaml:"minor"`
}

// DataSetMetaData describes the layout of a dataset.
type DataSetMetaData struct {
	Name                 string               `json:"name" yaml:"name"`
	Description          string               `json:"description,omitempty" yaml:"description,omitempty"`
	DataSetClassID       string               `json:"data_set_class_id,omitempty" yaml:"data_set_class_id,omitempty"`
	Fields               []FieldMetaData      `json:"fields" yaml:"fields"`
	ConfigurationVersion ConfigurationVersion `json:"configuration_version" yaml:"configuration_version"`
}

// FieldMetaData describes one dataset field.
type FieldMetaData struct {
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	BuiltInType     uint8    `json:"built_in_type" yaml:"built_in_type"`
	DataType        string   `json:"data_type" yaml:"data_type"`
	ValueRank       int32    `json:"value_rank" yaml:"value_rank"`
	FieldFlags      uint16   `json:"field_flags,omitempty" yaml:"field_flags,omitempty"`
	ArrayDimensions []uint32 `json:"array_dimensions,omitempty" yaml:"array_dimensions,omitempty"`
	MaxStringLength uint32   `json:"max_string_length,omitempty" yaml:"max_string_length,omitempty"`
	DataSetFieldID  string   `json:"data_set_field_id,omitempty" yaml:"data_set_field_id,omitempty"`
}

// FieldTarget binds an incoming field to a local variable.
type FieldTarget struct {
	DataSetFieldID        string `json:"data_set_field_id" yaml:"data_set_field_id"`
	ReceiverIndexRange    string `json:"receiver_index_range,omitempty" yaml:"receiver_index_range,omitempty"`
	TargetNodeID          string `json:"target_node_id" yaml:"target_node_id"`
	AttributeID           uint32 `json:"attribute_id" yaml:"attribute_id"`
	WriteIndexRange       string `json:"write_index_range,omitempty" yaml:"write_index_range,omitempty"`
	OverrideValueHandling int32  `json:"override_value_handling,omitempty" yaml:"override_value_handling,omitempty"`
}

// PublishedVariable is one source variable of a PublishedDataItems set.
type PublishedVariable struct {
	PublishedVariable    string  `json:"published_variable" yaml:"published_variable"`
	AttributeID          uint32  `json:"attribute_id" yaml:"attribute_id"`
	SamplingIntervalHint float64 `json:"sampling_interval_hint" yaml:"sampling_interval_hint"`
	DeadbandType         uint32  `json:"deadband_type,omitempty" yaml:"deadband_type,omitempty"`
	DeadbandValue        float64 `json:"deadband_value,omitempty" yaml:"deadband_value,omitempty"`
	IndexRange           string  `json:"index_range,omitempty" yaml:"index_range,omitempty"`
}

// KeyValue is a property or extension field.
type KeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

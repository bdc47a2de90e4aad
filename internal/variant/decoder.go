package variant

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/agentic-research/pubsubconf/api"
	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/resolve"
)

// Browse names of the settings containers under a group, writer or reader.
const (
	MessageSettingsName   = "MessageSettings"
	TransportSettingsName = "TransportSettings"
)

// Decoder reads settings variants through a Resolver. It is stateless
// apart from its policy and may be shared across goroutines.
type Decoder struct {
	r      *resolve.Resolver
	policy MismatchPolicy
}

// NewDecoder returns a Decoder reading through r. policy governs transport
// shapes that disagree with the connection profile.
func NewDecoder(r *resolve.Resolver, policy MismatchPolicy) *Decoder {
	return &Decoder{r: r, policy: policy}
}

func (d *Decoder) Policy() MismatchPolicy { return d.policy }

// DecodeMessageSettings reads the message settings of node. The shape is
// chosen by profile alone. Reader groups carry no message fields, and
// ProfileNone makes no remote calls.
func (d *Decoder) DecodeMessageSettings(ctx context.Context, node nodespace.NodeID, entity Entity, profile Profile) (api.MessageSettings, error) {
	ms := api.MessageSettings{Encoding: profile.Encoding()}
	if ms.Encoding == api.EncodingNone || entity == EntityReaderGroup {
		return ms, nil
	}

	settings, err := d.r.ChildNode(ctx, node, nodespace.QN(MessageSettingsName))
	if err != nil {
		return api.MessageSettings{}, resolve.Field(MessageSettingsName, err)
	}

	switch {
	case entity == EntityWriterGroup && ms.Encoding == api.EncodingUADP:
		ms.WriterGroupUADP, err = d.uadpWriterGroup(ctx, settings)
	case entity == EntityWriterGroup:
		ms.WriterGroupJSON, err = d.jsonWriterGroup(ctx, settings)
	case entity == EntityDataSetWriter && ms.Encoding == api.EncodingUADP:
		ms.DataSetWriterUADP, err = d.uadpDataSetWriter(ctx, settings)
	case entity == EntityDataSetWriter:
		ms.DataSetWriterJSON, err = d.jsonDataSetWriter(ctx, settings)
	case entity == EntityDataSetReader && ms.Encoding == api.EncodingUADP:
		ms.DataSetReaderUADP, err = d.uadpDataSetReader(ctx, settings)
	case entity == EntityDataSetReader:
		ms.DataSetReaderJSON, err = d.jsonDataSetReader(ctx, settings)
	default:
		return api.MessageSettings{}, fmt.Errorf("message settings: unknown entity %s", entity)
	}
	if err != nil {
		return api.MessageSettings{}, resolve.Field(MessageSettingsName, err)
	}
	return ms, nil
}

func (d *Decoder) uadpWriterGroup(ctx context.Context, node nodespace.NodeID) (*api.UadpWriterGroupMessage, error) {
	b := d.r.Bundle(ctx, node, "GroupVersion", "DataSetOrdering", "NetworkMessageContentMask")
	out := &api.UadpWriterGroupMessage{
		GroupVersion:              b.Uint32("GroupVersion"),
		DataSetOrdering:           b.Int32("DataSetOrdering"),
		NetworkMessageContentMask: b.Uint32("NetworkMessageContentMask"),
	}
	if err := b.Err(); err != nil {
		return nil, err
	}

	var err error
	if out.SamplingOffset, err = optional(ctx, d.r, node, "SamplingOffset", resolve.Float64); err != nil {
		return nil, err
	}
	if out.PublishingOffset, err = optional(ctx, d.r, node, "PublishingOffset", resolve.Float64s); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Decoder) jsonWriterGroup(ctx context.Context, node nodespace.NodeID) (*api.JSONWriterGroupMessage, error) {
	b := d.r.Bundle(ctx, node, "NetworkMessageContentMask")
	out := &api.JSONWriterGroupMessage{NetworkMessageContentMask: b.Uint32("NetworkMessageContentMask")}
	return out, b.Err()
}

func (d *Decoder) uadpDataSetWriter(ctx context.Context, node nodespace.NodeID) (*api.UadpDataSetWriterMessage, error) {
	b := d.r.Bundle(ctx, node, "DataSetMessageContentMask", "ConfiguredSize", "NetworkMessageNumber", "DataSetOffset")
	out := &api.UadpDataSetWriterMessage{
		DataSetMessageContentMask: b.Uint32("DataSetMessageContentMask"),
		ConfiguredSize:            b.Uint16("ConfiguredSize"),
		NetworkMessageNumber:      b.Uint16("NetworkMessageNumber"),
		DataSetOffset:             b.Uint16("DataSetOffset"),
	}
	return out, b.Err()
}

func (d *Decoder) jsonDataSetWriter(ctx context.Context, node nodespace.NodeID) (*api.JSONDataSetWriterMessage, error) {
	b := d.r.Bundle(ctx, node, "DataSetMessageContentMask")
	out := &api.JSONDataSetWriterMessage{DataSetMessageContentMask: b.Uint32("DataSetMessageContentMask")}
	return out, b.Err()
}

func (d *Decoder) uadpDataSetReader(ctx context.Context, node nodespace.NodeID) (*api.UadpDataSetReaderMessage, error) {
	b := d.r.Bundle(ctx, node,
		"GroupVersion", "NetworkMessageNumber", "DataSetOffset", "DataSetClassId",
		"NetworkMessageContentMask", "DataSetMessageContentMask",
		"PublishingInterval", "ReceiveOffset", "ProcessingOffset")
	out := &api.UadpDataSetReaderMessage{
		GroupVersion:              b.Uint32("GroupVersion"),
		NetworkMessageNumber:      b.Uint16("NetworkMessageNumber"),
		DataSetOffset:             b.Uint16("DataSetOffset"),
		DataSetClassID:            b.String("DataSetClassId"),
		NetworkMessageContentMask: b.Uint32("NetworkMessageContentMask"),
		DataSetMessageContentMask: b.Uint32("DataSetMessageContentMask"),
		PublishingInterval:        b.Float64("PublishingInterval"),
		ReceiveOffset:             b.Float64("ReceiveOffset"),
		ProcessingOffset:          b.Float64("ProcessingOffset"),
	}
	return out, b.Err()
}

func (d *Decoder) jsonDataSetReader(ctx context.Context, node nodespace.NodeID) (*api.JSONDataSetReaderMessage, error) {
	b := d.r.Bundle(ctx, node, "NetworkMessageContentMask", "DataSetMessageContentMask")
	out := &api.JSONDataSetReaderMessage{
		NetworkMessageContentMask: b.Uint32("NetworkMessageContentMask"),
		DataSetMessageContentMask: b.Uint32("DataSetMessageContentMask"),
	}
	return out, b.Err()
}

// DecodeTransportSettings reads the transport settings of node. The shape
// is taken from the type definition of the TransportSettings sub-node, not
// from profile. A missing sub-node is an error for writer groups and Kind
// none for everything else. A sub-node of unrecognised type is likewise an
// error for writer groups; other entities get Kind none and an advisory
// *UnknownTransportError.
//
// Under MismatchWarn a disagreeing shape is decoded and returned together
// with an advisory *ProfileMismatchError. Use Advisory to tell the two
// kinds of error apart.
func (d *Decoder) DecodeTransportSettings(ctx context.Context, node nodespace.NodeID, entity Entity, profile Profile) (api.TransportSettings, error) {
	none := api.TransportSettings{Kind: api.TransportNone}

	settings, err := d.r.ChildNode(ctx, node, nodespace.QN(TransportSettingsName))
	if err != nil {
		if entity != EntityWriterGroup && errors.Is(err, resolve.ErrPathNotFound) {
			return none, nil
		}
		return api.TransportSettings{}, resolve.Field(TransportSettingsName, err)
	}

	kind, typeDef, err := d.transportKind(ctx, node, settings)
	if err != nil {
		return api.TransportSettings{}, resolve.Field(TransportSettingsName, err)
	}
	if kind == classify.TransportNone {
		if entity == EntityWriterGroup {
			return api.TransportSettings{}, resolve.Field(TransportSettingsName, &UnknownTransportError{TypeDefinition: typeDef})
		}
		return none, &UnknownTransportError{TypeDefinition: typeDef, Advisory: true}
	}

	var advisory error
	if mismatched(profile, kind) {
		switch d.policy {
		case MismatchReject:
			return api.TransportSettings{}, &ProfileMismatchError{Profile: profile, Transport: kind}
		case MismatchWarn:
			advisory = &ProfileMismatchError{Profile: profile, Transport: kind, Advisory: true}
		}
	}

	ts, err := d.transportFields(ctx, settings, entity, kind)
	if err != nil {
		return api.TransportSettings{}, resolve.Field(TransportSettingsName, err)
	}
	return ts, advisory
}

// transportKind finds the settings node among node's references and
// classifies its type definition.
func (d *Decoder) transportKind(ctx context.Context, node, settings nodespace.NodeID) (classify.TransportKind, nodespace.NodeID, error) {
	refs, err := d.r.Accessor().Browse(ctx, node)
	if err != nil {
		return classify.TransportNone, nodespace.NodeID{}, err
	}
	for _, ref := range refs {
		if ref.NodeID == settings {
			return classify.Transport(ref), ref.TypeDefinition, nil
		}
	}
	return classify.TransportNone, nodespace.NodeID{}, nil
}

func (d *Decoder) transportFields(ctx context.Context, node nodespace.NodeID, entity Entity, kind classify.TransportKind) (api.TransportSettings, error) {
	switch kind {
	case classify.TransportDatagram:
		ts := api.TransportSettings{Kind: api.TransportDatagram}
		if entity != EntityWriterGroup {
			return ts, nil
		}
		b := d.r.Bundle(ctx, node, "MessageRepeatCount", "MessageRepeatDelay")
		ts.DatagramWriterGroup = &api.DatagramWriterGroupTransport{
			MessageRepeatCount: b.Uint8("MessageRepeatCount"),
			MessageRepeatDelay: b.Float64("MessageRepeatDelay"),
		}
		return ts, b.Err()

	case classify.TransportBroker:
		ts := api.TransportSettings{Kind: api.TransportBroker}
		switch entity {
		case EntityWriterGroup:
			b := d.r.Bundle(ctx, node, brokerFields...)
			bt := brokerTransport(b)
			ts.BrokerWriterGroup = &bt
			return ts, b.Err()
		case EntityDataSetWriter:
			b := d.r.Bundle(ctx, node, slices.Concat(brokerFields, []string{"MetaDataQueueName", "MetaDataUpdateTime"})...)
			ts.BrokerDataSetWriter = &api.BrokerDataSetWriterTransport{
				BrokerTransport:    brokerTransport(b),
				MetaDataQueueName:  b.String("MetaDataQueueName"),
				MetaDataUpdateTime: b.Float64("MetaDataUpdateTime"),
			}
			return ts, b.Err()
		case EntityDataSetReader:
			b := d.r.Bundle(ctx, node, slices.Concat(brokerFields, []string{"MetaDataQueueName"})...)
			ts.BrokerDataSetReader = &api.BrokerDataSetReaderTransport{
				BrokerTransport:   brokerTransport(b),
				MetaDataQueueName: b.String("MetaDataQueueName"),
			}
			return ts, b.Err()
		}
		return ts, nil
	}
	return api.TransportSettings{Kind: api.TransportNone}, nil
}

var brokerFields = []string{"QueueName", "ResourceUri", "AuthenticationProfileUri", "RequestedDeliveryGuarantee"}

func brokerTransport(b *resolve.Bundle) api.BrokerTransport {
	return api.BrokerTransport{
		QueueName:                  b.String("QueueName"),
		ResourceURI:                b.String("ResourceUri"),
		AuthenticationProfileURI:   b.String("AuthenticationProfileUri"),
		RequestedDeliveryGuarantee: b.Int32("RequestedDeliveryGuarantee"),
	}
}

// optional resolves name under node; a missing child yields the zero value.
func optional[T any](ctx context.Context, r *resolve.Resolver, node nodespace.NodeID, name string, conv func(any) (T, error)) (T, error) {
	var zero T
	v, err := r.ResolveNamedChild(ctx, node, nodespace.QN(name))
	if errors.Is(err, resolve.ErrPathNotFound) {
		return zero, nil
	}
	if err != nil {
		return zero, resolve.Field(name, err)
	}
	out, err := conv(v)
	if err != nil {
		return zero, resolve.Field(name, err)
	}
	return out, nil
}

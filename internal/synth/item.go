package synth

import (
	"context"

	"github.com/agentic-research/pubsubconf/api"
	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/resolve"
	"github.com/agentic-research/pubsubconf/internal/variant"
)

func (s *Synthesizer) dataSetWriter(ctx context.Context, ref nodespace.Reference, bc branchContext) (built[api.DataSetWriter], error) {
	node := ref.NodeID
	s.logger.Debug("visiting", "role", classify.DataSetWriter, "node", node, "name", ref.BrowseName.Name, "connection", bc.connection)
	fail := func(err error) (built[api.DataSetWriter], error) {
		return drop[api.DataSetWriter](ctx, s, ref, classify.DataSetWriter, err)
	}

	enabled, err := s.enabled(ctx, node)
	if err != nil {
		return fail(err)
	}
	b := s.r.Bundle(ctx, node, "DataSetWriterId", "DataSetName", "DataSetFieldContentMask", "KeyFrameCount")
	w := api.DataSetWriter{
		Name:                    ref.BrowseName.Name,
		Enabled:                 enabled,
		DataSetWriterID:         b.Uint16("DataSetWriterId"),
		DataSetName:             b.String("DataSetName"),
		DataSetFieldContentMask: b.Uint32("DataSetFieldContentMask"),
		KeyFrameCount:           b.Uint32("KeyFrameCount"),
	}
	if err := b.Err(); err != nil {
		return fail(err)
	}

	deco := s.decorations(ref, classify.DataSetWriter)
	w.MessageSettings, w.TransportSettings, err = s.settings(ctx, node, variant.EntityDataSetWriter, bc, deco)
	if err != nil {
		return fail(err)
	}
	w.DataSetMetaData = optional(ctx, deco, node, metaDataPointer, "DataSetMetaData")
	w.Properties = deco.properties(ctx, node, "DataSetWriterProperties")
	return keep(w, deco.warnings), nil
}

func (s *Synthesizer) dataSetReader(ctx context.Context, ref nodespace.Reference, bc branchContext) (built[api.DataSetReader], error) {
	node := ref.NodeID
	s.logger.Debug("visiting", "role", classify.DataSetReader, "node", node, "name", ref.BrowseName.Name, "connection", bc.connection)
	fail := func(err error) (built[api.DataSetReader], error) {
		return drop[api.DataSetReader](ctx, s, ref, classify.DataSetReader, err)
	}

	enabled, err := s.enabled(ctx, node)
	if err != nil {
		return fail(err)
	}
	b := s.r.Bundle(ctx, node,
		"PublisherId", "WriterGroupId", "DataSetWriterId", "DataSetMetaData",
		"DataSetFieldContentMask", "MessageReceiveTimeout")
	r := api.DataSetReader{
		Name:                    ref.BrowseName.Name,
		Enabled:                 enabled,
		PublisherID:             resolve.Get(b, "PublisherId", publisherID),
		WriterGroupID:           b.Uint16("WriterGroupId"),
		DataSetWriterID:         b.Uint16("DataSetWriterId"),
		DataSetMetaData:         resolve.Get(b, "DataSetMetaData", metaDataValue),
		DataSetFieldContentMask: b.Uint32("DataSetFieldContentMask"),
		MessageReceiveTimeout:   b.Float64("MessageReceiveTimeout"),
	}
	if err := b.Err(); err != nil {
		return fail(err)
	}

	deco := s.decorations(ref, classify.DataSetReader)
	r.MessageSettings, r.TransportSettings, err = s.settings(ctx, node, variant.EntityDataSetReader, bc, deco)
	if err != nil {
		return fail(err)
	}
	r.KeyFrameCount = optional(ctx, deco, node, resolve.Uint32, "KeyFrameCount")
	r.HeaderLayoutURI = optional(ctx, deco, node, resolve.String, "HeaderLayoutUri")
	r.TargetVariables = deco.targetVariables(ctx, node)
	r.Properties = deco.properties(ctx, node, "DataSetReaderProperties")
	return keep(r, deco.warnings), nil
}

// targetVariables reads SubscribedDataSet/TargetVariables. Each binding is
// an independent decoration: a bad one is skipped, the rest are kept.
func (d *decorations) targetVariables(ctx context.Context, node nodespace.NodeID) []api.FieldTarget {
	const field = "SubscribedDataSet/TargetVariables"
	v, err := d.s.r.ResolvePath(ctx, node, resolve.QNs("SubscribedDataSet", "TargetVariables")...)
	if err != nil {
		d.omit(field, err)
		return nil
	}
	targets, errs, err := resolve.FieldTargets(v)
	if err != nil {
		d.omit(field, err)
		return nil
	}
	d.omitElements(field, errs)
	var out []api.FieldTarget
	for _, t := range targets {
		out = append(out, fieldTarget(t))
	}
	return out
}

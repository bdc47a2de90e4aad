package synth

import (
	"context"

	"github.com/agentic-research/pubsubconf/api"
	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/resolve"
	"github.com/agentic-research/pubsubconf/internal/variant"
)

func (s *Synthesizer) writerGroup(ctx context.Context, ref nodespace.Reference, bc branchContext) (built[api.WriterGroup], error) {
	node := ref.NodeID
	s.logger.Debug("visiting", "role", classify.WriterGroup, "node", node, "name", ref.BrowseName.Name, "connection", bc.connection)
	fail := func(err error) (built[api.WriterGroup], error) {
		return drop[api.WriterGroup](ctx, s, ref, classify.WriterGroup, err)
	}

	enabled, err := s.enabled(ctx, node)
	if err != nil {
		return fail(err)
	}
	b := s.r.Bundle(ctx, node,
		"WriterGroupId", "PublishingInterval", "KeepAliveTime", "Priority",
		"HeaderLayoutUri", "MaxNetworkMessageSize")
	wg := api.WriterGroup{
		Name:                  ref.BrowseName.Name,
		Enabled:               enabled,
		WriterGroupID:         b.Uint16("WriterGroupId"),
		PublishingInterval:    b.Float64("PublishingInterval"),
		KeepAliveTime:         b.Float64("KeepAliveTime"),
		Priority:              b.Uint8("Priority"),
		HeaderLayoutURI:       b.String("HeaderLayoutUri"),
		MaxNetworkMessageSize: b.Uint32("MaxNetworkMessageSize"),
	}
	if err := b.Err(); err != nil {
		return fail(err)
	}

	deco := s.decorations(ref, classify.WriterGroup)
	wg.MessageSettings, wg.TransportSettings, err = s.settings(ctx, node, variant.EntityWriterGroup, bc, deco)
	if err != nil {
		return fail(err)
	}
	wg.LocaleIDs = optional(ctx, deco, node, resolve.Strings, "LocaleIds")
	wg.Properties = deco.properties(ctx, node, "GroupProperties")

	writerRefs, err := s.children(ctx, node, classify.DataSetWriter)
	if err != nil {
		return fail(err)
	}
	var warnings []Warning
	wg.DataSetWriters, warnings, err = collect(ctx, s, writerRefs, func(ctx context.Context, ref nodespace.Reference) (built[api.DataSetWriter], error) {
		return s.dataSetWriter(ctx, ref, bc)
	})
	if err != nil {
		return built[api.WriterGroup]{}, err
	}
	return keep(wg, append(deco.warnings, warnings...)), nil
}

func (s *Synthesizer) readerGroup(ctx context.Context, ref nodespace.Reference, bc branchContext) (built[api.ReaderGroup], error) {
	node := ref.NodeID
	s.logger.Debug("visiting", "role", classify.ReaderGroup, "node", node, "name", ref.BrowseName.Name, "connection", bc.connection)
	fail := func(err error) (built[api.ReaderGroup], error) {
		return drop[api.ReaderGroup](ctx, s, ref, classify.ReaderGroup, err)
	}

	enabled, err := s.enabled(ctx, node)
	if err != nil {
		return fail(err)
	}
	size, err := required(ctx, s.r, node, resolve.Uint32, "MaxNetworkMessageSize")
	if err != nil {
		return fail(err)
	}
	rg := api.ReaderGroup{
		Name:                  ref.BrowseName.Name,
		Enabled:               enabled,
		MaxNetworkMessageSize: size,
	}

	deco := s.decorations(ref, classify.ReaderGroup)
	rg.MessageSettings, rg.TransportSettings, err = s.settings(ctx, node, variant.EntityReaderGroup, bc, deco)
	if err != nil {
		return fail(err)
	}
	rg.Properties = deco.properties(ctx, node, "GroupProperties")

	readerRefs, err := s.children(ctx, node, classify.DataSetReader)
	if err != nil {
		return fail(err)
	}
	var warnings []Warning
	rg.DataSetReaders, warnings, err = collect(ctx, s, readerRefs, func(ctx context.Context, ref nodespace.Reference) (built[api.DataSetReader], error) {
		return s.dataSetReader(ctx, ref, bc)
	})
	if err != nil {
		return built[api.ReaderGroup]{}, err
	}
	return keep(rg, append(deco.warnings, warnings...)), nil
}

// settings decodes message and transport settings with the profile
// inherited from the connection. An unsupported profile fails the entity.
// Advisory transport errors are recorded on deco and the settings are kept.
func (s *Synthesizer) settings(ctx context.Context, node nodespace.NodeID, entity variant.Entity, bc branchContext, deco *decorations) (api.MessageSettings, api.TransportSettings, error) {
	if bc.profileErr != nil {
		return api.MessageSettings{}, api.TransportSettings{}, resolve.Field("TransportProfileUri", bc.profileErr)
	}
	ms, err := s.dec.DecodeMessageSettings(ctx, node, entity, bc.profile)
	if err != nil {
		return api.MessageSettings{}, api.TransportSettings{}, err
	}
	ts, err := s.dec.DecodeTransportSettings(ctx, node, entity, bc.profile)
	switch {
	case err == nil:
	case variant.Advisory(err):
		deco.advise(variant.TransportSettingsName, err)
	default:
		return api.MessageSettings{}, api.TransportSettings{}, err
	}
	return ms, ts, nil
}

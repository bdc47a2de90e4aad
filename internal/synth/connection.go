package synth

import (
	"context"

	"github.com/agentic-research/pubsubconf/api"
	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/resolve"
	"github.com/agentic-research/pubsubconf/internal/variant"
)

// connection reads Status, PublisherId, TransportProfileUri and Address in
// that order, then its reader and writer groups.
func (s *Synthesizer) connection(ctx context.Context, ref nodespace.Reference) (built[api.Connection], error) {
	node := ref.NodeID
	s.logger.Debug("visiting", "role", classify.Connection, "node", node, "name", ref.BrowseName.Name)
	fail := func(err error) (built[api.Connection], error) {
		return drop[api.Connection](ctx, s, ref, classify.Connection, err)
	}

	enabled, err := s.enabled(ctx, node)
	if err != nil {
		return fail(err)
	}
	pid, err := required(ctx, s.r, node, publisherID, "PublisherId")
	if err != nil {
		return fail(err)
	}
	uri, err := required(ctx, s.r, node, resolve.String, "TransportProfileUri")
	if err != nil {
		return fail(err)
	}
	url, err := required(ctx, s.r, node, resolve.String, "Address", "Url")
	if err != nil {
		return fail(err)
	}

	deco := s.decorations(ref, classify.Connection)
	conn := api.Connection{
		Name:                ref.BrowseName.Name,
		Enabled:             enabled,
		PublisherID:         pid,
		TransportProfileURI: uri,
		Address: api.Address{
			NetworkInterface: optional(ctx, deco, node, resolve.String, "Address", "NetworkInterface"),
			URL:              url,
		},
		Properties: deco.properties(ctx, node, "ConnectionProperties"),
	}

	bc := branchContext{connection: conn.Name}
	bc.profile, bc.profileErr = variant.ParseProfile(uri)

	groups, err := s.children(ctx, node, classify.ReaderGroup, classify.WriterGroup)
	if err != nil {
		return fail(err)
	}
	var readerRefs, writerRefs []nodespace.Reference
	for _, g := range groups {
		if classify.Classify(g) == classify.ReaderGroup {
			readerRefs = append(readerRefs, g)
		} else {
			writerRefs = append(writerRefs, g)
		}
	}

	var warnings []Warning
	conn.ReaderGroups, warnings, err = collect(ctx, s, readerRefs, func(ctx context.Context, ref nodespace.Reference) (built[api.ReaderGroup], error) {
		return s.readerGroup(ctx, ref, bc)
	})
	if err != nil {
		return built[api.Connection]{}, err
	}
	var wgWarnings []Warning
	conn.WriterGroups, wgWarnings, err = collect(ctx, s, writerRefs, func(ctx context.Context, ref nodespace.Reference) (built[api.WriterGroup], error) {
		return s.writerGroup(ctx, ref, bc)
	})
	if err != nil {
		return built[api.Connection]{}, err
	}

	warnings = append(deco.warnings, append(warnings, wgWarnings...)...)
	return keep(conn, warnings), nil
}

// enabled reads Status/State.
func (s *Synthesizer) enabled(ctx context.Context, node nodespace.NodeID) (bool, error) {
	return required(ctx, s.r, node, enabledState, "Status", "State")
}

// properties reads a KeyValuePair array. Bad elements are skipped one by one.
func (d *decorations) properties(ctx context.Context, node nodespace.NodeID, name string) []api.KeyValue {
	v, err := d.s.r.ResolveNamedChild(ctx, node, nodespace.QN(name))
	if err != nil {
		d.omit(name, err)
		return nil
	}
	pairs, errs, err := resolve.KeyValues(v)
	if err != nil {
		d.omit(name, err)
		return nil
	}
	d.omitElements(name, errs)
	var out []api.KeyValue
	for _, kv := range pairs {
		out = append(out, api.KeyValue{Key: kv.Key.String(), Value: plainValue(kv.Value)})
	}
	return out
}

// Package synth rebuilds a PubSub configuration document by walking a node
// space from the PublishSubscribe object down.
//
// Every collection (connections, groups, readers, writers, folder entries)
// is built by the same fold: one entity per classified reference, in Browse
// order. An entity whose required fields cannot be resolved is dropped and
// reported as a Warning; its siblings are unaffected. Only cancellation of
// the context aborts the whole pass.
package synth

import (
	"context"
	"log/slog"
	"slices"

	"github.com/agentic-research/pubsubconf/api"
	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/resolve"
	"github.com/agentic-research/pubsubconf/internal/variant"
)

// DataSetContainerName is the folder directly under the root that holds
// published datasets. It does not appear in dataset folder paths.
const DataSetContainerName = "PublishedDataSets"

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// WithConcurrency bounds how many sibling entities of one collection are
// resolved at once. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(s *Synthesizer) { s.concurrency = max(n, 1) }
}

// WithMismatchPolicy sets how a transport that disagrees with the
// connection's profile is handled.
func WithMismatchPolicy(p variant.MismatchPolicy) Option {
	return func(s *Synthesizer) { s.policy = p }
}

// Synthesizer holds no per-pass state; one value may run several passes,
// including concurrently.
type Synthesizer struct {
	space       nodespace.Accessor
	r           *resolve.Resolver
	dec         *variant.Decoder
	logger      *slog.Logger
	concurrency int
	policy      variant.MismatchPolicy
}

// New returns a Synthesizer reading from space. Without options it logs to
// slog.Default, resolves one entity at a time and decodes transports
// best-effort.
func New(space nodespace.Accessor, opts ...Option) *Synthesizer {
	s := &Synthesizer{space: space, concurrency: 1}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.r = resolve.New(space)
	s.dec = variant.NewDecoder(s.r, s.policy)
	return s
}

// branchContext is what a subtree needs to know about its ancestors. It is
// passed by value.
type branchContext struct {
	connection string
	profile    variant.Profile
	profileErr error
	folder     []string
}

// inFolder returns a copy of b one folder deeper. The parent's path is
// never shared with the child.
func (b branchContext) inFolder(name string) branchContext {
	b.folder = append(slices.Clip(b.folder), name)
	return b
}

// Synthesize walks the node space below root and returns the document and
// the warnings for everything left out. The error is non-nil only when ctx
// is cancelled, in which case no document is returned.
func (s *Synthesizer) Synthesize(ctx context.Context, root nodespace.NodeID) (*api.Document, []Warning, error) {
	s.logger.Debug("synthesize", "root", root, "concurrency", s.concurrency, "mismatch_policy", s.policy)

	refs, err := s.space.Browse(ctx, root)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		s.logger.Warn("browse root failed", "root", root, "error", err)
		w := Warning{Node: root, Role: classify.Unclassified, Err: err}
		return emptyDocument(), []Warning{w}, nil
	}

	var connRefs, dataRefs []nodespace.Reference
	for _, ref := range refs {
		switch classify.Classify(ref) {
		case classify.Connection:
			connRefs = append(connRefs, ref)
		case classify.DataSetFolder, classify.PublishedDataItems:
			dataRefs = append(dataRefs, ref)
		}
	}

	conns, warnings, err := collect(ctx, s, connRefs, s.connection)
	if err != nil {
		return nil, nil, err
	}

	top := branchContext{folder: []string{}}
	datasets, dsWarnings, err := collect(ctx, s, dataRefs, func(ctx context.Context, ref nodespace.Reference) (built[api.PublishedDataSet], error) {
		if classify.Classify(ref) == classify.DataSetFolder && ref.BrowseName.Name == DataSetContainerName {
			return s.folder(ctx, ref, top)
		}
		return s.folderEntry(ctx, ref, top)
	})
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, dsWarnings...)

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.logger.Debug("synthesize done",
		"connections", len(conns), "published_data_sets", len(datasets), "warnings", len(warnings))
	return &api.Document{Connections: conns, PublishedDataSets: datasets}, warnings, nil
}

func emptyDocument() *api.Document {
	return &api.Document{Connections: []api.Connection{}, PublishedDataSets: []api.PublishedDataSet{}}
}

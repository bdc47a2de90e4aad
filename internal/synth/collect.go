package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/resolve"
	"golang.org/x/sync/errgroup"
)

// built is the outcome of one reference: zero or more entities (folders
// yield many) and the warnings raised while building them.
type built[T any] struct {
	items    []T
	warnings []Warning
}

func keep[T any](v T, warnings []Warning) built[T] {
	return built[T]{items: []T{v}, warnings: warnings}
}

// collect builds every ref, at most s.concurrency at a time, and flattens
// the outcomes in ref order. build returns an error only to abort the pass.
func collect[T any](ctx context.Context, s *Synthesizer, refs []nodespace.Reference,
	build func(context.Context, nodespace.Reference) (built[T], error)) ([]T, []Warning, error) {

	results := make([]built[T], len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			res, err := build(gctx, ref)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	items := make([]T, 0, len(refs))
	var warnings []Warning
	for _, res := range results {
		items = append(items, res.items...)
		warnings = append(warnings, res.warnings...)
	}
	return items, warnings, nil
}

// drop reports ref as dropped, unless ctx is done, in which case the pass
// is aborted instead.
func drop[T any](ctx context.Context, s *Synthesizer, ref nodespace.Reference, role classify.Role, err error) (built[T], error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return built[T]{}, ctxErr
	}
	w := newWarning(ref, role, "", false, err)
	s.logger.Warn("dropping entity", "role", role, "node", ref.NodeID, "name", w.Name, "field", w.Field, "error", err)
	return built[T]{warnings: []Warning{w}}, nil
}

// children browses node and keeps the references with the given roles.
func (s *Synthesizer) children(ctx context.Context, node nodespace.NodeID, roles ...classify.Role) ([]nodespace.Reference, error) {
	refs, err := s.space.Browse(ctx, node)
	if err != nil {
		return nil, err
	}
	var out []nodespace.Reference
	for _, ref := range refs {
		role := classify.Classify(ref)
		for _, want := range roles {
			if role == want {
				out = append(out, ref)
				break
			}
		}
	}
	return out, nil
}

// decorations accumulates optional-field warnings for one entity.
type decorations struct {
	s        *Synthesizer
	ref      nodespace.Reference
	role     classify.Role
	warnings []Warning
}

func (s *Synthesizer) decorations(ref nodespace.Reference, role classify.Role) *decorations {
	return &decorations{s: s, ref: ref, role: role}
}

// omit records that field was left out. An absent field is normal for an
// optional decoration and is not reported.
func (d *decorations) omit(field string, err error) {
	if errors.Is(err, resolve.ErrPathNotFound) {
		return
	}
	w := newWarning(d.ref, d.role, field, true, err)
	d.s.logger.Warn("omitting optional field", "role", d.role, "node", d.ref.NodeID, "name", w.Name, "field", field, "error", err)
	d.warnings = append(d.warnings, w)
}

// omitElements records one warning per bad element of the array at field.
func (d *decorations) omitElements(field string, errs []error) {
	for _, err := range errs {
		var ee *resolve.ElementError
		if errors.As(err, &ee) {
			d.omit(fmt.Sprintf("%s[%d]", field, ee.Index), ee.Err)
			continue
		}
		d.omit(field, err)
	}
}

// advise records an advisory problem on a kept entity.
func (d *decorations) advise(field string, err error) {
	w := newWarning(d.ref, d.role, field, true, err)
	d.s.logger.Warn("advisory", "role", d.role, "node", d.ref.NodeID, "name", w.Name, "field", field, "error", err)
	d.warnings = append(d.warnings, w)
}

// required resolves the relative path under node and converts the value.
// Failures name the path.
func required[T any](ctx context.Context, r *resolve.Resolver, node nodespace.NodeID, conv func(any) (T, error), path ...string) (T, error) {
	var zero T
	field := strings.Join(path, "/")
	v, err := r.ResolvePath(ctx, node, resolve.QNs(path...)...)
	if err != nil {
		return zero, resolve.Field(field, err)
	}
	out, err := conv(v)
	if err != nil {
		return zero, resolve.Field(field, err)
	}
	return out, nil
}

// optional is required for decorations: failures are recorded on d and
// yield the zero value.
func optional[T any](ctx context.Context, d *decorations, node nodespace.NodeID, conv func(any) (T, error), path ...string) T {
	var zero T
	field := strings.Join(path, "/")
	v, err := d.s.r.ResolvePath(ctx, node, resolve.QNs(path...)...)
	if err != nil {
		d.omit(field, err)
		return zero
	}
	out, err := conv(v)
	if err != nil {
		d.omit(field, err)
		return zero
	}
	return out
}

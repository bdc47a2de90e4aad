package synth

import (
	"context"
	"slices"

	"github.com/agentic-research/pubsubconf/api"
	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/resolve"
)

// ExtensionFieldsName is the container whose child variables are a
// dataset's extension fields.
const ExtensionFieldsName = "ExtensionFields"

// folderEntry builds one reference found in a folder: a subfolder (one
// segment deeper) or a dataset.
func (s *Synthesizer) folderEntry(ctx context.Context, ref nodespace.Reference, bc branchContext) (built[api.PublishedDataSet], error) {
	if classify.Classify(ref) == classify.DataSetFolder {
		return s.folder(ctx, ref, bc.inFolder(ref.BrowseName.Name))
	}
	return s.publishedDataSet(ctx, ref, bc)
}

// folder lists ref's datasets and subfolders. bc.folder already includes
// ref when ref contributes a path segment.
func (s *Synthesizer) folder(ctx context.Context, ref nodespace.Reference, bc branchContext) (built[api.PublishedDataSet], error) {
	s.logger.Debug("visiting", "role", classify.DataSetFolder, "node", ref.NodeID, "name", ref.BrowseName.Name, "folder", bc.folder)
	entries, err := s.children(ctx, ref.NodeID, classify.DataSetFolder, classify.PublishedDataItems)
	if err != nil {
		return drop[api.PublishedDataSet](ctx, s, ref, classify.DataSetFolder, err)
	}
	items, warnings, err := collect(ctx, s, entries, func(ctx context.Context, entry nodespace.Reference) (built[api.PublishedDataSet], error) {
		return s.folderEntry(ctx, entry, bc)
	})
	if err != nil {
		return built[api.PublishedDataSet]{}, err
	}
	return built[api.PublishedDataSet]{items: items, warnings: warnings}, nil
}

func (s *Synthesizer) publishedDataSet(ctx context.Context, ref nodespace.Reference, bc branchContext) (built[api.PublishedDataSet], error) {
	node := ref.NodeID
	s.logger.Debug("visiting", "role", classify.PublishedDataItems, "node", node, "name", ref.BrowseName.Name, "folder", bc.folder)

	b := s.r.Bundle(ctx, node, "ConfigurationVersion", "DataSetMetaData", "PublishedData")
	pds := api.PublishedDataSet{
		Name:                 ref.BrowseName.Name,
		DataSetFolder:        slices.Clone(bc.folder),
		ConfigurationVersion: resolve.Get(b, "ConfigurationVersion", configurationVersionValue),
		DataSetMetaData:      resolve.Get(b, "DataSetMetaData", metaDataValue),
		PublishedData:        resolve.Get(b, "PublishedData", publishedData),
	}
	if err := b.Err(); err != nil {
		return drop[api.PublishedDataSet](ctx, s, ref, classify.PublishedDataItems, err)
	}

	deco := s.decorations(ref, classify.PublishedDataItems)
	pds.ExtensionFields = deco.extensionFields(ctx, node)
	return keep(pds, deco.warnings), nil
}

// extensionFields reads every variable under the ExtensionFields container
// with one batched Read. A variable that cannot be read is skipped.
func (d *decorations) extensionFields(ctx context.Context, node nodespace.NodeID) []api.KeyValue {
	container, err := d.s.r.ChildNode(ctx, node, nodespace.QN(ExtensionFieldsName))
	if err != nil {
		d.omit(ExtensionFieldsName, err)
		return nil
	}
	refs, err := d.s.space.Browse(ctx, container)
	if err != nil {
		d.omit(ExtensionFieldsName, err)
		return nil
	}
	// Only variables are fields; the AddExtensionField and
	// RemoveExtensionField methods live in the same container.
	refs = slices.DeleteFunc(refs, func(ref nodespace.Reference) bool { return !ref.MaybeVariable() })
	ids := make([]nodespace.NodeID, len(refs))
	for i, ref := range refs {
		ids[i] = ref.NodeID
	}
	values, errs, err := d.s.r.ResolveEach(ctx, ids)
	if err != nil {
		d.omit(ExtensionFieldsName, err)
		return nil
	}
	var out []api.KeyValue
	for i, ref := range refs {
		key := ref.BrowseName.Name
		if errs[i] != nil {
			d.omit(ExtensionFieldsName+"/"+key, errs[i])
			continue
		}
		out = append(out, api.KeyValue{Key: key, Value: plainValue(values[i])})
	}
	return out
}

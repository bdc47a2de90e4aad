package synth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/agentic-research/pubsubconf/api"
	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	nst "github.com/agentic-research/pubsubconf/internal/nodespace/nodespacetest"
	"github.com/agentic-research/pubsubconf/internal/resolve"
	"github.com/agentic-research/pubsubconf/internal/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// publisher builds a udp-uadp connection with one writer group holding one
// writer, the smallest fully valid publisher.
func publisher(m *nodespace.Memory, root nodespace.NodeID, profile string) (conn, wg, w nodespace.NodeID) {
	conn = nst.Connection(m, root, "UADP Connection 1", profile, uint16(7))
	wg = nst.WriterGroup(m, conn, "WriterGroup 1", 100)
	nst.UADPWriterGroupMessage(m, wg)
	nst.DatagramWriterGroupTransport(m, wg)
	w = nst.DataSetWriter(m, wg, "Writer 1", 3, "Temp")
	nst.UADPDataSetWriterMessage(m, w)
	return conn, wg, w
}

func synthesize(t *testing.T, space nodespace.Accessor, root nodespace.NodeID, opts ...Option) (*api.Document, []Warning) {
	t.Helper()
	doc, warnings, err := New(space, append([]Option{quiet()}, opts...)...).Synthesize(context.Background(), root)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc, warnings
}

func TestSynthesize_SinglePublisher(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	publisher(m, root, "udp-uadp")

	doc, warnings := synthesize(t, m, root)
	assert.Empty(t, warnings)
	require.Len(t, doc.Connections, 1)

	conn := doc.Connections[0]
	assert.Equal(t, "UADP Connection 1", conn.Name)
	assert.True(t, conn.Enabled)
	assert.Equal(t, api.PublisherID{Type: api.PublisherIDUInt16, Value: 7}, conn.PublisherID)
	assert.True(t, conn.PublisherID.Narrow())
	assert.Equal(t, "udp-uadp", conn.TransportProfileURI)
	assert.Equal(t, api.Address{NetworkInterface: "eth0", URL: "opc.udp://239.0.0.1:4840"}, conn.Address)
	assert.Empty(t, conn.ReaderGroups)

	require.Len(t, conn.WriterGroups, 1)
	wg := conn.WriterGroups[0]
	assert.Equal(t, uint16(100), wg.WriterGroupID)
	assert.Equal(t, api.EncodingUADP, wg.MessageSettings.Encoding)
	require.NotNil(t, wg.MessageSettings.WriterGroupUADP)
	assert.Nil(t, wg.MessageSettings.WriterGroupJSON)
	assert.Equal(t, api.TransportDatagram, wg.TransportSettings.Kind)

	require.Len(t, wg.DataSetWriters, 1)
	w := wg.DataSetWriters[0]
	assert.Equal(t, "Writer 1", w.Name)
	assert.Equal(t, uint16(3), w.DataSetWriterID)
	assert.Equal(t, "Temp", w.DataSetName)
	assert.Equal(t, api.EncodingUADP, w.MessageSettings.Encoding)
	assert.NotNil(t, w.MessageSettings.DataSetWriterUADP)
	assert.Equal(t, api.TransportNone, w.TransportSettings.Kind)
}

func TestSynthesize_MissingWriterGroupTransport(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", "udp-uadp", uint16(7))
	wg := nst.WriterGroup(m, conn, "WG", 1)
	nst.UADPWriterGroupMessage(m, wg)
	w := nst.DataSetWriter(m, wg, "W", 3, "Temp")
	nst.UADPDataSetWriterMessage(m, w)

	doc, warnings := synthesize(t, m, root)
	require.Len(t, doc.Connections, 1)
	assert.Empty(t, doc.Connections[0].WriterGroups)

	require.Len(t, warnings, 1)
	assert.Equal(t, wg, warnings[0].Node)
	assert.Equal(t, classify.WriterGroup, warnings[0].Role)
	assert.Equal(t, "WG", warnings[0].Name)
	assert.Equal(t, "TransportSettings", warnings[0].Field)
	assert.False(t, warnings[0].Optional)
	assert.ErrorIs(t, warnings[0], resolve.ErrPathNotFound)
}

func TestSynthesize_NestedFolders(t *testing.T) {
	m := nodespace.NewMemory()
	root, datasets := nst.PublishSubscribe(m)
	nst.PublishedDataItems(m, datasets, "Top")
	static := nst.Folder(m, datasets, "Static")
	scalars := nst.Folder(m, static, "Scalars")
	nst.PublishedDataItems(m, scalars, "Simple")
	nst.PublishedDataItems(m, static, "Mid")

	doc, warnings := synthesize(t, m, root)
	assert.Empty(t, warnings)
	require.Len(t, doc.PublishedDataSets, 3)

	assert.Equal(t, "Top", doc.PublishedDataSets[0].Name)
	assert.Equal(t, []string{}, doc.PublishedDataSets[0].DataSetFolder)
	assert.Equal(t, "Simple", doc.PublishedDataSets[1].Name)
	assert.Equal(t, []string{"Static", "Scalars"}, doc.PublishedDataSets[1].DataSetFolder)
	assert.Equal(t, "Mid", doc.PublishedDataSets[2].Name)
	assert.Equal(t, []string{"Static"}, doc.PublishedDataSets[2].DataSetFolder)

	pds := doc.PublishedDataSets[1]
	assert.Equal(t, api.ConfigurationVersion{Major: 1, Minor: 1}, pds.ConfigurationVersion)
	assert.Equal(t, "Simple", pds.DataSetMetaData.Name)
	require.Len(t, pds.PublishedData, 1)
	assert.Equal(t, "ns=1;i=6001", pds.PublishedData[0].PublishedVariable)
}

func TestSynthesize_FolderDirectlyUnderRootIsASegment(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	other := nst.Folder(m, root, "Other")
	nst.PublishedDataItems(m, other, "DS")

	doc, _ := synthesize(t, m, root)
	require.Len(t, doc.PublishedDataSets, 1)
	assert.Equal(t, []string{"Other"}, doc.PublishedDataSets[0].DataSetFolder)
}

func TestSynthesize_ExtensionFields(t *testing.T) {
	m := nodespace.NewMemory()
	root, datasets := nst.PublishSubscribe(m)
	pds := nst.PublishedDataItems(m, datasets, "DS")
	ef := nst.ExtensionFields(m, pds, "Site", "Plant 4", "Line", uint16(2))
	bad := m.Variable(ef, "Broken", "x")
	require.NoError(t, m.SetStatus(bad, nodespace.StatusBadNotReadable))

	doc, warnings := synthesize(t, m, root)
	require.Len(t, doc.PublishedDataSets, 1)
	assert.Equal(t, []api.KeyValue{{Key: "Site", Value: "Plant 4"}, {Key: "Line", Value: uint16(2)}}, doc.PublishedDataSets[0].ExtensionFields)

	require.Len(t, warnings, 1)
	assert.True(t, warnings[0].Optional)
	assert.Equal(t, "ExtensionFields/Broken", warnings[0].Field)
	assert.ErrorIs(t, warnings[0], resolve.ErrReadFailed)
}

func TestSynthesize_ExtensionFieldsSkipsNonVariables(t *testing.T) {
	m := nodespace.NewMemory()
	root, datasets := nst.PublishSubscribe(m)
	pds := nst.PublishedDataItems(m, datasets, "DS")
	ef := nst.ExtensionFields(m, pds, "Site", "Plant 4")
	m.Method(ef, "AddExtensionField")
	m.Method(ef, "RemoveExtensionField")
	m.Object(ef, "Nested", nodespace.NodeID{})

	doc, warnings := synthesize(t, m, root)
	require.Len(t, doc.PublishedDataSets, 1)
	assert.Equal(t, []api.KeyValue{{Key: "Site", Value: "Plant 4"}}, doc.PublishedDataSets[0].ExtensionFields)
	assert.Empty(t, warnings)
}

func TestSynthesize_ReaderMQTTJSON(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "MQTT", "mqtt-json", uint64(1<<40))
	rg := nst.ReaderGroup(m, conn, "RG")
	r := nst.DataSetReader(m, rg, "Reader", uint64(1<<40), 1, 3)
	nst.JSONDataSetReaderMessage(m, r)
	nst.BrokerTransport(m, r, classify.BrokerDataSetReaderTransportType, "plant/temp")
	nst.TargetVariables(m, r,
		nst.FieldTarget("f1", nodespace.Numeric(1, 7001)),
		nodespace.ExtensionObject{TypeID: nodespace.TypeIDFieldTargetData, Body: "garbage"},
		nst.FieldTarget("f3", nodespace.Numeric(1, 7003)),
	)

	doc, warnings := synthesize(t, m, root)
	require.Len(t, doc.Connections, 1)
	assert.Equal(t, api.PublisherID{Type: api.PublisherIDUInt64, Value: 1 << 40}, doc.Connections[0].PublisherID)
	require.Len(t, doc.Connections[0].ReaderGroups, 1)
	rgOut := doc.Connections[0].ReaderGroups[0]
	assert.Equal(t, api.EncodingJSON, rgOut.MessageSettings.Encoding)

	require.Len(t, rgOut.DataSetReaders, 1)
	reader := rgOut.DataSetReaders[0]
	assert.Equal(t, api.EncodingJSON, reader.MessageSettings.Encoding)
	require.NotNil(t, reader.MessageSettings.DataSetReaderJSON)
	assert.Nil(t, reader.MessageSettings.DataSetReaderUADP)
	assert.Equal(t, api.TransportBroker, reader.TransportSettings.Kind)
	require.NotNil(t, reader.TransportSettings.BrokerDataSetReader)
	assert.Equal(t, "plant/temp", reader.TransportSettings.BrokerDataSetReader.QueueName)
	assert.Equal(t, "Reader", reader.DataSetMetaData.Name)
	assert.Equal(t, uint16(3), reader.DataSetWriterID)

	// the malformed binding is omitted, its neighbours are kept
	require.Len(t, reader.TargetVariables, 2)
	assert.Equal(t, "f1", reader.TargetVariables[0].DataSetFieldID)
	assert.Equal(t, "f3", reader.TargetVariables[1].DataSetFieldID)
	require.Len(t, warnings, 1)
	assert.True(t, warnings[0].Optional)
	assert.Equal(t, r, warnings[0].Node)
	assert.Equal(t, "SubscribedDataSet/TargetVariables[1]", warnings[0].Field)
	assert.ErrorIs(t, warnings[0], resolve.ErrMalformedValue)
}

func TestSynthesize_DroppedSiblingsCardinality(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	_, wg, _ := publisher(m, root, nst.UDPUADP)

	// three more writers, the middle one missing its id
	for _, name := range []string{"Writer 2", "Writer 3", "Writer 4"} {
		w := m.Object(wg, name, nodespace.Numeric(0, classify.DataSetWriterType))
		nst.Status(m, w, true)
		if name != "Writer 3" {
			m.Variable(w, "DataSetWriterId", uint16(9))
		}
		m.Variable(w, "DataSetName", "DS")
		m.Variable(w, "DataSetFieldContentMask", uint32(0))
		m.Variable(w, "KeyFrameCount", uint32(1))
		nst.UADPDataSetWriterMessage(m, w)
	}
	// an unclassified sibling is skipped without a warning
	m.Object(wg, "Diagnostics", nodespace.Numeric(0, 19677))
	// a second connection is unaffected by the first one's drops
	nst.Connection(m, root, "Conn 2", nst.UDPUADP, uint16(8))

	doc, warnings := synthesize(t, m, root)
	require.Len(t, doc.Connections, 2)
	assert.Equal(t, "UADP Connection 1", doc.Connections[0].Name)
	assert.Equal(t, "Conn 2", doc.Connections[1].Name)

	writers := doc.Connections[0].WriterGroups[0].DataSetWriters
	candidates, dropped := 4, 1
	require.Len(t, writers, candidates-dropped)
	assert.Equal(t, []string{"Writer 1", "Writer 2", "Writer 4"}, []string{writers[0].Name, writers[1].Name, writers[2].Name})

	require.Len(t, warnings, 1)
	assert.Equal(t, "Writer 3", warnings[0].Name)
	assert.Equal(t, classify.DataSetWriter, warnings[0].Role)
	assert.Equal(t, "DataSetWriterId", warnings[0].Field)
}

func TestSynthesize_DuplicateNamesPreserved(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.UDPUADP, uint16(1))
	for range 2 {
		wg := nst.WriterGroup(m, conn, "Same", 1)
		nst.UADPWriterGroupMessage(m, wg)
		nst.DatagramWriterGroupTransport(m, wg)
	}

	doc, warnings := synthesize(t, m, root)
	assert.Empty(t, warnings)
	require.Len(t, doc.Connections[0].WriterGroups, 2)
	assert.Equal(t, "Same", doc.Connections[0].WriterGroups[1].Name)
}

func TestSynthesize_UnsupportedProfileDropsGroups(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	publisher(m, root, "http://example.com/amqp")

	doc, warnings := synthesize(t, m, root)
	require.Len(t, doc.Connections, 1)
	assert.Equal(t, "http://example.com/amqp", doc.Connections[0].TransportProfileURI)
	assert.Empty(t, doc.Connections[0].WriterGroups)

	require.Len(t, warnings, 1)
	assert.Equal(t, classify.WriterGroup, warnings[0].Role)
	assert.ErrorIs(t, warnings[0], variant.ErrUnsupportedProfile)
}

func TestSynthesize_MismatchPolicy(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.UDPUADP, uint16(1))
	wg := nst.WriterGroup(m, conn, "WG", 1)
	nst.UADPWriterGroupMessage(m, wg)
	nst.BrokerTransport(m, wg, classify.BrokerWriterGroupTransportType, "q")

	doc, warnings := synthesize(t, m, root)
	assert.Empty(t, warnings)
	require.Len(t, doc.Connections[0].WriterGroups, 1)
	assert.Equal(t, api.TransportBroker, doc.Connections[0].WriterGroups[0].TransportSettings.Kind)

	doc, warnings = synthesize(t, m, root, WithMismatchPolicy(variant.MismatchWarn))
	require.Len(t, doc.Connections[0].WriterGroups, 1)
	require.Len(t, warnings, 1)
	assert.True(t, warnings[0].Optional)
	assert.ErrorIs(t, warnings[0], variant.ErrProfileMismatch)

	doc, warnings = synthesize(t, m, root, WithMismatchPolicy(variant.MismatchReject))
	assert.Empty(t, doc.Connections[0].WriterGroups)
	require.Len(t, warnings, 1)
	assert.False(t, warnings[0].Optional)
	assert.ErrorIs(t, warnings[0], variant.ErrProfileMismatch)
}

func TestSynthesize_UnknownTransportType(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	_, _, w := publisher(m, root, nst.UDPUADP)
	m.Object(w, "TransportSettings", nodespace.Numeric(2, 5001))

	doc, warnings := synthesize(t, m, root)
	require.Len(t, doc.Connections[0].WriterGroups, 1)
	writers := doc.Connections[0].WriterGroups[0].DataSetWriters
	require.Len(t, writers, 1)
	assert.Equal(t, api.TransportNone, writers[0].TransportSettings.Kind)
	require.Len(t, warnings, 1)
	assert.Equal(t, w, warnings[0].Node)
	assert.True(t, warnings[0].Optional)
	assert.Equal(t, "TransportSettings", warnings[0].Field)
	assert.ErrorIs(t, warnings[0], variant.ErrUnknownTransport)

	// A writer group cannot go without a recognised transport.
	m2 := nodespace.NewMemory()
	root2, _ := nst.PublishSubscribe(m2)
	conn2 := nst.Connection(m2, root2, "Conn", nst.UDPUADP, uint16(7))
	wg2 := nst.WriterGroup(m2, conn2, "WG", 1)
	nst.UADPWriterGroupMessage(m2, wg2)
	m2.Object(wg2, "TransportSettings", nodespace.Numeric(2, 5001))

	doc, warnings = synthesize(t, m2, root2)
	assert.Empty(t, doc.Connections[0].WriterGroups)
	require.Len(t, warnings, 1)
	assert.Equal(t, wg2, warnings[0].Node)
	assert.False(t, warnings[0].Optional)
	assert.Equal(t, "TransportSettings", warnings[0].Field)
	assert.ErrorIs(t, warnings[0], resolve.ErrMalformedValue)
}

func TestSynthesize_DisabledState(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := m.Object(root, "Off", nodespace.Numeric(0, classify.PubSubConnectionType))
	nst.Status(m, conn, false)
	m.Variable(conn, "PublisherId", uint32(70000))
	m.Variable(conn, "TransportProfileUri", "")
	addr := m.Object(conn, "Address", nodespace.NodeID{})
	m.Variable(addr, "Url", "opc.udp://localhost:4840")

	doc, warnings := synthesize(t, m, root)
	assert.Empty(t, warnings, "NetworkInterface is optional and absent")
	require.Len(t, doc.Connections, 1)
	assert.False(t, doc.Connections[0].Enabled)
	assert.Equal(t, api.PublisherID{Type: api.PublisherIDUInt64, Value: 70000}, doc.Connections[0].PublisherID)
	assert.Equal(t, "", doc.Connections[0].Address.NetworkInterface)
}

func TestSynthesize_MalformedPublisherIDDropsConnection(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.UDPUADP, "not-a-number")

	doc, warnings := synthesize(t, m, root)
	assert.Empty(t, doc.Connections)
	require.Len(t, warnings, 1)
	assert.Equal(t, conn, warnings[0].Node)
	assert.Equal(t, "PublisherId", warnings[0].Field)
	assert.ErrorIs(t, warnings[0], resolve.ErrMalformedValue)
}

func TestSynthesize_RootBrowseFailure(t *testing.T) {
	m := nodespace.NewMemory()
	missing := nodespace.Numeric(0, 14443)

	doc, warnings, err := New(m, quiet()).Synthesize(context.Background(), missing)
	require.NoError(t, err)
	assert.Empty(t, doc.Connections)
	assert.Empty(t, doc.PublishedDataSets)
	require.Len(t, warnings, 1)
	assert.Equal(t, missing, warnings[0].Node)
	assert.ErrorIs(t, warnings[0], nodespace.ErrNodeUnknown)
}

func TestSynthesize_Cancelled(t *testing.T) {
	m := nodespace.NewMemory()
	root, datasets := nst.PublishSubscribe(m)
	publisher(m, root, nst.UDPUADP)
	publisher(m, root, nst.UDPUADP)
	nst.PublishedDataItems(m, datasets, "DS")

	for _, n := range []int64{0, 1, 3} {
		ctx, cancel := context.WithCancel(context.Background())
		space := nst.NewCancelAfter(m, n, cancel)
		doc, warnings, err := New(space, quiet(), WithConcurrency(4)).Synthesize(ctx, root)
		require.Error(t, err, "cancel after %d browses", n)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Nil(t, doc)
		assert.Nil(t, warnings)
		cancel()
	}
}

func TestSynthesize_ConcurrencyKeepsBrowseOrder(t *testing.T) {
	m := nodespace.NewMemory()
	root, datasets := nst.PublishSubscribe(m)
	for i := range 6 {
		conn := nst.Connection(m, root, string(rune('A'+i)), nst.UDPUADP, uint16(i))
		for j := range 3 {
			wg := nst.WriterGroup(m, conn, string(rune('a'+j)), uint16(j))
			nst.UADPWriterGroupMessage(m, wg)
			nst.DatagramWriterGroupTransport(m, wg)
		}
		nst.ReaderGroup(m, conn, "rg")
	}
	f := nst.Folder(m, datasets, "F")
	for _, name := range []string{"d1", "d2", "d3"} {
		nst.PublishedDataItems(m, f, name)
	}

	want, _ := synthesize(t, m, root)
	for seed := uint64(1); seed <= 4; seed++ {
		got, warnings := synthesize(t, nst.NewShuffled(m, seed), root, WithConcurrency(8))
		assert.Empty(t, warnings)
		assert.Equal(t, want, got, "seed %d", seed)
	}
}

func TestBranchContext_InFolderDoesNotShare(t *testing.T) {
	base := branchContext{folder: make([]string, 1, 8)}
	base.folder[0] = "Root"

	a := base.inFolder("A")
	b := base.inFolder("B")
	assert.Equal(t, []string{"Root", "A"}, a.folder)
	assert.Equal(t, []string{"Root", "B"}, b.folder)
	assert.Equal(t, []string{"Root"}, base.folder)
}

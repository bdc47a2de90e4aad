package variant

import (
	"context"
	"errors"
	"testing"

	"github.com/agentic-research/pubsubconf/api"
	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	nst "github.com/agentic-research/pubsubconf/internal/nodespace/nodespacetest"
	"github.com/agentic-research/pubsubconf/internal/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	cases := []struct {
		in   string
		want Profile
	}{
		{nst.UDPUADP, ProfileUDPUADP},
		{nst.MQTTUADP, ProfileMQTTUADP},
		{nst.MQTTJSON, ProfileMQTTJSON},
		{"udp-uadp", ProfileUDPUADP},
		{"mqtt-uadp", ProfileMQTTUADP},
		{"mqtt-json", ProfileMQTTJSON},
		{"none", ProfileNone},
		{"", ProfileNone},
	}
	for _, tc := range cases {
		got, err := ParseProfile(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseProfile_Unsupported(t *testing.T) {
	for _, uri := range []string{
		"http://opcfoundation.org/UA-Profile/Transport/pubsub-amqp-uadp",
		"http://opcfoundation.org/UA-Profile/Transport/pubsub-none",
		"udp",
		"UDP-UADP",
	} {
		_, err := ParseProfile(uri)
		require.Error(t, err, uri)
		assert.ErrorIs(t, err, ErrUnsupportedProfile)

		var upe *UnsupportedProfileError
		require.ErrorAs(t, err, &upe)
		assert.Equal(t, uri, upe.URI)
	}
}

func TestProfile_URIRoundTrip(t *testing.T) {
	for _, p := range []Profile{ProfileNone, ProfileUDPUADP, ProfileMQTTUADP, ProfileMQTTJSON} {
		got, err := ParseProfile(p.URI())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestParseMismatchPolicy(t *testing.T) {
	for _, p := range []MismatchPolicy{MismatchBestEffort, MismatchWarn, MismatchReject} {
		got, err := ParseMismatchPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	got, err := ParseMismatchPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MismatchBestEffort, got)

	_, err = ParseMismatchPolicy("strict")
	assert.Error(t, err)
}

func newDecoder(m nodespace.Accessor, policy MismatchPolicy) *Decoder {
	return NewDecoder(resolve.New(m), policy)
}

// shape reports which message payload pointers are set.
func shape(ms api.MessageSettings) []string {
	var out []string
	if ms.WriterGroupUADP != nil {
		out = append(out, "wg-uadp")
	}
	if ms.WriterGroupJSON != nil {
		out = append(out, "wg-json")
	}
	if ms.DataSetWriterUADP != nil {
		out = append(out, "dsw-uadp")
	}
	if ms.DataSetWriterJSON != nil {
		out = append(out, "dsw-json")
	}
	if ms.DataSetReaderUADP != nil {
		out = append(out, "dsr-uadp")
	}
	if ms.DataSetReaderJSON != nil {
		out = append(out, "dsr-json")
	}
	return out
}

func TestDecodeMessageSettings_WriterGroupUADP(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.UDPUADP, uint16(7))
	wg := nst.WriterGroup(m, conn, "WG", 1)
	nst.UADPWriterGroupMessage(m, wg)

	ms, err := newDecoder(m, MismatchBestEffort).DecodeMessageSettings(context.Background(), wg, EntityWriterGroup, ProfileUDPUADP)
	require.NoError(t, err)
	assert.Equal(t, api.EncodingUADP, ms.Encoding)
	require.Equal(t, []string{"wg-uadp"}, shape(ms))
	assert.Equal(t, uint32(734), ms.WriterGroupUADP.GroupVersion)
	assert.Equal(t, uint32(0x3f), ms.WriterGroupUADP.NetworkMessageContentMask)
	assert.Equal(t, -1.0, ms.WriterGroupUADP.SamplingOffset)
	assert.Empty(t, ms.WriterGroupUADP.PublishingOffset, "optional field absent")
}

func TestDecodeMessageSettings_SameProfileSameShape(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)

	// Writers under two MQTT/JSON connections; one also carries UADP-only
	// children, which must not leak into the decoded shape.
	var writers []nodespace.NodeID
	for i, name := range []string{"A", "B"} {
		conn := nst.Connection(m, root, name, nst.MQTTJSON, uint16(i))
		wg := nst.WriterGroup(m, conn, "WG", 1)
		w := nst.DataSetWriter(m, wg, "W", 1, "DS")
		ms := nst.JSONDataSetWriterMessage(m, w)
		if i == 1 {
			m.Variable(ms, "ConfiguredSize", uint16(64))
		}
		writers = append(writers, w)
	}

	d := newDecoder(m, MismatchBestEffort)
	for _, w := range writers {
		ms, err := d.DecodeMessageSettings(context.Background(), w, EntityDataSetWriter, ProfileMQTTJSON)
		require.NoError(t, err)
		assert.Equal(t, api.EncodingJSON, ms.Encoding)
		assert.Equal(t, []string{"dsw-json"}, shape(ms))
	}
}

func TestDecodeMessageSettings_EveryEntityShape(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.MQTTUADP, uint16(1))
	wg := nst.WriterGroup(m, conn, "WG", 1)
	nst.JSONWriterGroupMessage(m, wg)
	w := nst.DataSetWriter(m, wg, "W", 1, "DS")
	nst.UADPDataSetWriterMessage(m, w)
	rg := nst.ReaderGroup(m, conn, "RG")
	r := nst.DataSetReader(m, rg, "R", uint16(1), 1, 1)
	nst.UADPDataSetReaderMessage(m, r)
	d := newDecoder(m, MismatchBestEffort)
	ctx := context.Background()

	ms, err := d.DecodeMessageSettings(ctx, w, EntityDataSetWriter, ProfileMQTTUADP)
	require.NoError(t, err)
	assert.Equal(t, []string{"dsw-uadp"}, shape(ms))
	assert.Equal(t, uint16(15), ms.DataSetWriterUADP.DataSetOffset)

	ms, err = d.DecodeMessageSettings(ctx, r, EntityDataSetReader, ProfileMQTTUADP)
	require.NoError(t, err)
	assert.Equal(t, []string{"dsr-uadp"}, shape(ms))
	assert.Equal(t, 100.0, ms.DataSetReaderUADP.PublishingInterval)

	ms, err = d.DecodeMessageSettings(ctx, rg, EntityReaderGroup, ProfileMQTTUADP)
	require.NoError(t, err)
	assert.Equal(t, api.EncodingUADP, ms.Encoding)
	assert.Empty(t, shape(ms))

	ms, err = d.DecodeMessageSettings(ctx, wg, EntityWriterGroup, ProfileMQTTJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"wg-json"}, shape(ms))
}

func TestDecodeMessageSettings_NoneMakesNoCalls(t *testing.T) {
	m := nodespace.NewMemory()
	counting := nst.NewCounting(m)

	ms, err := newDecoder(counting, MismatchBestEffort).DecodeMessageSettings(context.Background(), nodespace.Numeric(1, 1), EntityWriterGroup, ProfileNone)
	require.NoError(t, err)
	assert.Equal(t, api.EncodingNone, ms.Encoding)
	assert.Zero(t, counting.Browses.Load()+counting.Reads.Load()+counting.Translates.Load())
}

func TestDecodeMessageSettings_MissingFieldNamesIt(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.UDPUADP, uint16(7))
	wg := nst.WriterGroup(m, conn, "WG", 1)
	ms := m.Object(wg, "MessageSettings", nodespace.NodeID{})
	m.Variable(ms, "GroupVersion", uint32(1))

	_, err := newDecoder(m, MismatchBestEffort).DecodeMessageSettings(context.Background(), wg, EntityWriterGroup, ProfileUDPUADP)
	require.Error(t, err)
	assert.ErrorIs(t, err, resolve.ErrPathNotFound)
	assert.Contains(t, err.Error(), "DataSetOrdering")
}

func TestDecodeTransportSettings_Datagram(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.UDPUADP, uint16(7))
	wg := nst.WriterGroup(m, conn, "WG", 1)
	nst.DatagramWriterGroupTransport(m, wg)

	ts, err := newDecoder(m, MismatchReject).DecodeTransportSettings(context.Background(), wg, EntityWriterGroup, ProfileUDPUADP)
	require.NoError(t, err)
	assert.Equal(t, api.TransportDatagram, ts.Kind)
	require.NotNil(t, ts.DatagramWriterGroup)
	assert.Equal(t, uint8(2), ts.DatagramWriterGroup.MessageRepeatCount)
	assert.Nil(t, ts.BrokerWriterGroup)
}

func TestDecodeTransportSettings_MissingIsRequiredForWriterGroups(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.UDPUADP, uint16(7))
	wg := nst.WriterGroup(m, conn, "WG", 1)
	w := nst.DataSetWriter(m, wg, "W", 3, "Temp")
	d := newDecoder(m, MismatchBestEffort)

	_, err := d.DecodeTransportSettings(context.Background(), wg, EntityWriterGroup, ProfileUDPUADP)
	require.Error(t, err)
	assert.ErrorIs(t, err, resolve.ErrPathNotFound)

	ts, err := d.DecodeTransportSettings(context.Background(), w, EntityDataSetWriter, ProfileUDPUADP)
	require.NoError(t, err)
	assert.Equal(t, api.TransportNone, ts.Kind)
}

// A reader under an MQTT/JSON connection decodes JSON message settings and
// broker transport settings independently.
func TestDecode_ReaderMQTTJSONWithBrokerTransport(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.MQTTJSON, uint16(9))
	rg := nst.ReaderGroup(m, conn, "RG")
	r := nst.DataSetReader(m, rg, "R", uint16(9), 1, 1)
	nst.JSONDataSetReaderMessage(m, r)
	nst.BrokerTransport(m, r, classify.BrokerDataSetReaderTransportType, "plant/line1")
	d := newDecoder(m, MismatchReject)
	ctx := context.Background()

	ms, err := d.DecodeMessageSettings(ctx, r, EntityDataSetReader, ProfileMQTTJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"dsr-json"}, shape(ms))

	ts, err := d.DecodeTransportSettings(ctx, r, EntityDataSetReader, ProfileMQTTJSON)
	require.NoError(t, err)
	assert.Equal(t, api.TransportBroker, ts.Kind)
	require.NotNil(t, ts.BrokerDataSetReader)
	assert.Equal(t, "plant/line1", ts.BrokerDataSetReader.QueueName)
	assert.Equal(t, "plant/line1/meta", ts.BrokerDataSetReader.MetaDataQueueName)
}

func TestDecodeTransportSettings_MismatchPolicies(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.UDPUADP, uint16(7))
	wg := nst.WriterGroup(m, conn, "WG", 1)
	nst.BrokerTransport(m, wg, classify.BrokerWriterGroupTransportType, "q")
	ctx := context.Background()

	t.Run("best-effort", func(t *testing.T) {
		ts, err := newDecoder(m, MismatchBestEffort).DecodeTransportSettings(ctx, wg, EntityWriterGroup, ProfileUDPUADP)
		require.NoError(t, err)
		assert.Equal(t, api.TransportBroker, ts.Kind)
		require.NotNil(t, ts.BrokerWriterGroup)
		assert.Equal(t, "q", ts.BrokerWriterGroup.QueueName)
	})

	t.Run("warn", func(t *testing.T) {
		ts, err := newDecoder(m, MismatchWarn).DecodeTransportSettings(ctx, wg, EntityWriterGroup, ProfileUDPUADP)
		require.Error(t, err)
		var pm *ProfileMismatchError
		require.True(t, errors.As(err, &pm))
		assert.True(t, pm.Advisory)
		assert.Equal(t, classify.TransportBroker, pm.Transport)
		assert.Equal(t, api.TransportBroker, ts.Kind, "advisory mismatch still decodes")
		assert.NotNil(t, ts.BrokerWriterGroup)
	})

	t.Run("reject", func(t *testing.T) {
		ts, err := newDecoder(m, MismatchReject).DecodeTransportSettings(ctx, wg, EntityWriterGroup, ProfileUDPUADP)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrProfileMismatch)
		var pm *ProfileMismatchError
		require.ErrorAs(t, err, &pm)
		assert.False(t, pm.Advisory)
		assert.Equal(t, api.TransportSettings{}, ts)
	})

	t.Run("none profile never mismatches", func(t *testing.T) {
		ts, err := newDecoder(m, MismatchReject).DecodeTransportSettings(ctx, wg, EntityWriterGroup, ProfileNone)
		require.NoError(t, err)
		assert.Equal(t, api.TransportBroker, ts.Kind)
	})
}

func TestDecodeTransportSettings_UnknownTag(t *testing.T) {
	m := nodespace.NewMemory()
	root, _ := nst.PublishSubscribe(m)
	conn := nst.Connection(m, root, "Conn", nst.UDPUADP, uint16(7))
	wg := nst.WriterGroup(m, conn, "WG", 1)
	m.Object(wg, "TransportSettings", nodespace.Numeric(2, 5001))
	w := nst.DataSetWriter(m, wg, "W", 3, "Temp")
	m.Object(w, "TransportSettings", nodespace.NodeID{})
	ctx := context.Background()

	t.Run("writer group", func(t *testing.T) {
		ts, err := newDecoder(m, MismatchBestEffort).DecodeTransportSettings(ctx, wg, EntityWriterGroup, ProfileUDPUADP)
		require.Error(t, err)
		assert.False(t, Advisory(err))
		assert.ErrorIs(t, err, ErrUnknownTransport)
		assert.ErrorIs(t, err, resolve.ErrMalformedValue)
		assert.Contains(t, err.Error(), "ns=2;i=5001")

		var fe *resolve.FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, TransportSettingsName, fe.Field)
		assert.Equal(t, api.TransportSettings{}, ts)
	})

	t.Run("writer", func(t *testing.T) {
		ts, err := newDecoder(m, MismatchReject).DecodeTransportSettings(ctx, w, EntityDataSetWriter, ProfileUDPUADP)
		require.Error(t, err)
		assert.True(t, Advisory(err))
		assert.ErrorIs(t, err, ErrUnknownTransport)
		assert.NotErrorIs(t, err, resolve.ErrMalformedValue)
		assert.Contains(t, err.Error(), "no type definition")
		assert.Equal(t, api.TransportSettings{Kind: api.TransportNone}, ts)
	})
}

func TestAdvisory(t *testing.T) {
	assert.False(t, Advisory(nil))
	assert.False(t, Advisory(errors.New("boom")))
	assert.True(t, Advisory(&ProfileMismatchError{Advisory: true}))
	assert.False(t, Advisory(&ProfileMismatchError{}))
	assert.True(t, Advisory(&UnknownTransportError{Advisory: true}))
	assert.False(t, Advisory(resolve.Field(TransportSettingsName, &UnknownTransportError{})))
}

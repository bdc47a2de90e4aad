// Package variant decodes the message-settings and transport-settings shapes
// of groups, writers and readers. Message shape follows the connection's
// transport profile; transport shape follows the sub-node type actually
// present under the entity.
package variant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/pubsubconf/api"
	"github.com/agentic-research/pubsubconf/internal/classify"
)

// Profile is a known transport profile.
type Profile int

const (
	ProfileNone Profile = iota
	ProfileUDPUADP
	ProfileMQTTUADP
	ProfileMQTTJSON
)

const profilePrefix = "http://opcfoundation.org/UA-Profile/Transport/pubsub-"

var profileNames = map[Profile]string{
	ProfileNone:     "none",
	ProfileUDPUADP:  "udp-uadp",
	ProfileMQTTUADP: "mqtt-uadp",
	ProfileMQTTJSON: "mqtt-json",
}

var profilesByName = map[string]Profile{
	"udp-uadp":  ProfileUDPUADP,
	"mqtt-uadp": ProfileMQTTUADP,
	"mqtt-json": ProfileMQTTJSON,
	"none":      ProfileNone,
}

var ErrUnsupportedProfile = errors.New("unsupported transport profile")

// UnsupportedProfileError carries the profile URI that was not recognized.
type UnsupportedProfileError struct {
	URI string
}

func (e *UnsupportedProfileError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnsupportedProfile, e.URI)
}

func (e *UnsupportedProfileError) Is(target error) bool { return target == ErrUnsupportedProfile }

// ParseProfile accepts the full profile URI or its short alias. An empty
// URI is ProfileNone.
func ParseProfile(uri string) (Profile, error) {
	s := strings.TrimSpace(uri)
	if s == "" {
		return ProfileNone, nil
	}
	short := strings.TrimPrefix(s, profilePrefix)
	if short != s && short == "none" {
		return 0, &UnsupportedProfileError{URI: uri}
	}
	if p, ok := profilesByName[short]; ok {
		return p, nil
	}
	return 0, &UnsupportedProfileError{URI: uri}
}

func (p Profile) String() string {
	if s, ok := profileNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

// URI returns the full profile URI, or "" for ProfileNone.
func (p Profile) URI() string {
	if p == ProfileNone {
		return ""
	}
	return profilePrefix + p.String()
}

// Encoding is the message-settings shape the profile selects.
func (p Profile) Encoding() api.MessageEncoding {
	switch p {
	case ProfileUDPUADP, ProfileMQTTUADP:
		return api.EncodingUADP
	case ProfileMQTTJSON:
		return api.EncodingJSON
	default:
		return api.EncodingNone
	}
}

// Transport is the transport kind the profile implies. ProfileNone implies
// nothing and never mismatches.
func (p Profile) Transport() classify.TransportKind {
	switch p {
	case ProfileUDPUADP:
		return classify.TransportDatagram
	case ProfileMQTTUADP, ProfileMQTTJSON:
		return classify.TransportBroker
	default:
		return classify.TransportNone
	}
}

// Entity is the kind of node whose settings are being decoded.
type Entity int

const (
	EntityWriterGroup Entity = iota
	EntityReaderGroup
	EntityDataSetWriter
	EntityDataSetReader
)

func (e Entity) String() string {
	switch e {
	case EntityWriterGroup:
		return "WriterGroup"
	case EntityReaderGroup:
		return "ReaderGroup"
	case EntityDataSetWriter:
		return "DataSetWriter"
	case EntityDataSetReader:
		return "DataSetReader"
	default:
		return fmt.Sprintf("Entity(%d)", int(e))
	}
}

package variant

import (
	"errors"
	"fmt"

	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/resolve"
)

// MismatchPolicy decides what happens when the transport sub-node found
// under an entity disagrees with the connection's profile, for example a
// broker transport under a UDP profile.
type MismatchPolicy int

const (
	// MismatchBestEffort decodes whichever transport shape is present.
	MismatchBestEffort MismatchPolicy = iota
	// MismatchWarn decodes and returns an advisory *ProfileMismatchError.
	MismatchWarn
	// MismatchReject fails the decode with a *ProfileMismatchError.
	MismatchReject
)

var policyNames = []string{"best-effort", "warn", "reject"}

func (p MismatchPolicy) String() string {
	if int(p) >= 0 && int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("MismatchPolicy(%d)", int(p))
}

// ParseMismatchPolicy parses "best-effort", "warn" or "reject". Empty is best-effort.
func ParseMismatchPolicy(s string) (MismatchPolicy, error) {
	if s == "" {
		return MismatchBestEffort, nil
	}
	for i, name := range policyNames {
		if s == name {
			return MismatchPolicy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mismatch policy %q", s)
}

var ErrProfileMismatch = errors.New("transport does not match profile")

// ProfileMismatchError reports a transport shape that disagrees with the
// profile. When Advisory is set the settings were still decoded and the
// error is informational.
type ProfileMismatchError struct {
	Profile   Profile
	Transport classify.TransportKind
	Advisory  bool
}

func (e *ProfileMismatchError) Error() string {
	return fmt.Sprintf("%v: %s transport under %s profile", ErrProfileMismatch, e.Transport, e.Profile)
}

func (e *ProfileMismatchError) Is(target error) bool { return target == ErrProfileMismatch }

var ErrUnknownTransport = errors.New("unrecognised transport settings type")

// UnknownTransportError reports a TransportSettings sub-node whose type
// definition is neither a datagram nor a broker transport. When Advisory is
// not set it also matches resolve.ErrMalformedValue.
type UnknownTransportError struct {
	TypeDefinition nodespace.NodeID
	Advisory       bool
}

func (e *UnknownTransportError) Error() string {
	td := "no type definition"
	if !e.TypeDefinition.IsNull() {
		td = e.TypeDefinition.String()
	}
	return fmt.Sprintf("%v: %s", ErrUnknownTransport, td)
}

func (e *UnknownTransportError) Is(target error) bool {
	return target == ErrUnknownTransport || (!e.Advisory && target == resolve.ErrMalformedValue)
}

// Advisory reports whether err from DecodeTransportSettings is
// informational, meaning the returned settings are usable.
func Advisory(err error) bool {
	var mismatch *ProfileMismatchError
	if errors.As(err, &mismatch) {
		return mismatch.Advisory
	}
	var unknown *UnknownTransportError
	return errors.As(err, &unknown) && unknown.Advisory
}

func mismatched(p Profile, kind classify.TransportKind) bool {
	want := p.Transport()
	return want != classify.TransportNone && kind != classify.TransportNone && kind != want
}

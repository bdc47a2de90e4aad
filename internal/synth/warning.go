package synth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
	"github.com/agentic-research/pubsubconf/internal/resolve"
)

// Warning records something that was left out of the document.
//
// When Optional is false the whole entity at Node was dropped. When it is
// true the entity was kept and only Field (a decoration, one element of a
// list, or an advisory check) is missing or suspect.
type Warning struct {
	Node     nodespace.NodeID
	Name     string
	Role     classify.Role
	Field    string
	Optional bool
	Err      error
}

func (w Warning) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q (%s)", w.Role, w.Name, w.Node)
	if w.Field != "" {
		b.WriteString(" field ")
		b.WriteString(w.Field)
	}
	if w.Optional {
		b.WriteString(" omitted: ")
	} else {
		b.WriteString(" dropped: ")
	}
	b.WriteString(w.Err.Error())
	return b.String()
}

func (w Warning) Unwrap() error { return w.Err }

func newWarning(ref nodespace.Reference, role classify.Role, field string, optional bool, err error) Warning {
	if field == "" {
		field = fieldPath(err)
	}
	return Warning{
		Node:     ref.NodeID,
		Name:     ref.BrowseName.Name,
		Role:     role,
		Field:    field,
		Optional: optional,
		Err:      err,
	}
}

// fieldPath joins the names of every *resolve.FieldError in err's chain,
// outermost first.
func fieldPath(err error) string {
	var parts []string
	for err != nil {
		var fe *resolve.FieldError
		if !errors.As(err, &fe) {
			break
		}
		parts = append(parts, fe.Field)
		err = fe.Err
	}
	return strings.Join(parts, "/")
}

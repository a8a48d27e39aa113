package scenario

import (
	"math"

	"github.com/pkg/errors"
)

const positionTolerance = 1e-6

func (r *Runner) expect(step *ExpectStep) error {
	e := r.engine
	if step.Nodes != nil {
		if got := e.Store().Len(); got != *step.Nodes {
			return errors.Errorf("expected %d nodes, got %d", *step.Nodes, got)
		}
	}
	if step.Gesture != "" {
		if got := e.Gesture().Kind.String(); got != step.Gesture {
			return errors.Errorf("expected gesture %s, got %s", step.Gesture, got)
		}
	}
	if step.ZoomPercent != nil {
		if got := e.Viewport().Percent(); got != *step.ZoomPercent {
			return errors.Errorf("expected zoom %d%%, got %d%%", *step.ZoomPercent, got)
		}
	}
	if step.Node != nil {
		return r.expectNode(step.Node)
	}
	return nil
}

func (r *Runner) expectNode(x *NodeExpect) error {
	id, err := r.resolve(x.Ref)
	if err != nil {
		return err
	}
	n, ok := r.engine.Node(id)
	if x.Gone {
		if ok {
			return errors.Errorf("expected %s to be gone", x.Ref)
		}
		return nil
	}
	if !ok {
		return errors.Errorf("expected %s to exist", x.Ref)
	}
	if x.Label != nil && n.Label != *x.Label {
		return errors.Errorf("%s: expected label %q, got %q", x.Ref, *x.Label, n.Label)
	}
	if x.Metadata != nil && n.Metadata != *x.Metadata {
		return errors.Errorf("%s: expected metadata %q, got %q", x.Ref, *x.Metadata, n.Metadata)
	}
	if x.Expanded != nil && n.Expanded != *x.Expanded {
		return errors.Errorf("%s: expected expanded=%v", x.Ref, *x.Expanded)
	}
	if x.Children != nil && len(n.Children) != *x.Children {
		return errors.Errorf("%s: expected %d children, got %d", x.Ref, *x.Children, len(n.Children))
	}
	if x.Entries != nil && len(n.Payload) != *x.Entries {
		return errors.Errorf("%s: expected %d entries, got %d", x.Ref, *x.Entries, len(n.Payload))
	}
	if x.Position != nil {
		d := n.Position.Sub(*x.Position)
		if math.Abs(d.X) > positionTolerance || math.Abs(d.Y) > positionTolerance {
			return errors.Errorf("%s: expected position %v, got %v", x.Ref, *x.Position, n.Position)
		}
	}
	return nil
}

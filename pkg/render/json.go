package render

import (
	"io"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

func WriteJSON(w io.Writer, snap *canvas.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// Schema describes the JSON form of a snapshot.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeOf(tree.NodeID{}):
				return &jsonschema.Schema{Type: "string", Format: "uuid"}
			case reflect.TypeOf(gesture.Idle):
				return &jsonschema.Schema{
					Type: "string",
					Enum: []interface{}{
						gesture.Idle.String(),
						gesture.DraggingNode.String(),
						gesture.Panning.String(),
					},
				}
			}
			return nil
		},
	}
	s := r.Reflect(&canvas.Snapshot{})
	s.Title = "branchcanvas snapshot"
	return s
}

func WriteSchema(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Schema())
}

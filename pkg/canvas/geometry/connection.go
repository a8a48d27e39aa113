package geometry

// ChildRow computes where a row of n equally sized siblings starts so that the
// row is horizontally centered under a parent of the same width.
//
//	totalWidth = n*width + (n-1)*gap
//	startX     = parent.X + width/2 - totalWidth/2
//	y          = parent.Y + verticalOffset
func ChildRow(parent Point, n int, width, gap, verticalOffset float64) (startX, y float64) {
	fn := float64(n)
	totalWidth := fn*width + (fn-1)*gap
	startX = parent.X + width/2 - totalWidth/2
	y = parent.Y + verticalOffset
	return startX, y
}

// ChildSlots returns the top-left positions of n siblings laid out under parent.
// n <= 0 yields nil.
func ChildSlots(parent Point, n int, width, gap, verticalOffset float64) []Point {
	if n <= 0 {
		return nil
	}
	startX, y := ChildRow(parent, n, width, gap, verticalOffset)
	slots := make([]Point, n)
	for i := range slots {
		slots[i] = Point{X: startX + float64(i)*(width+gap), Y: y}
	}
	return slots
}

// Connection is the pair of endpoints an edge between a parent and a child must honor.
type Connection struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// ConnectionPoints returns the parent's bottom-center exit and the child's
// top-center entry. parentHeight depends on the parent's expansion state and
// must be looked up by the caller for that parent only.
func ConnectionPoints(parent Point, parentHeight float64, child Point, width float64) Connection {
	return Connection{
		From: Point{X: parent.X + width/2, Y: parent.Y + parentHeight},
		To:   Point{X: child.X + width/2, Y: child.Y},
	}
}

// Curve is a cubic Bézier segment.
type Curve struct {
	Start Point `json:"start"`
	C1    Point `json:"c1"`
	C2    Point `json:"c2"`
	End   Point `json:"end"`
}

// SCurve returns the vertical S-curve used to route an edge: both control
// points sit on the vertical midpoint between the endpoints.
func SCurve(c Connection) Curve {
	midY := (c.From.Y + c.To.Y) / 2
	return Curve{
		Start: c.From,
		C1:    Point{X: c.From.X, Y: midY},
		C2:    Point{X: c.To.X, Y: midY},
		End:   c.To,
	}
}

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.Start.X + b*c.C1.X + d*c.C2.X + e*c.End.X,
		Y: a*c.Start.Y + b*c.C1.Y + d*c.C2.Y + e*c.End.Y,
	}
}

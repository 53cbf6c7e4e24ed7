// Package interaction implements the hover, selection and camera state of a
// view, written back to its store.
package interaction

import (
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/picking"
	"github.com/aukilabs/vectorspace/store"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	SelectionModeClick = "click"
	SelectionModeMulti = "multi"
)

// Picker finds the point under a screen position.
type Picker interface {
	Pick(x, y float64) (picking.Identity, bool)
}

// View is the camera control the machine keeps in sync with the store.
type View interface {
	Position() r3.Vec
	Target() r3.Vec

	// Setters must not emit change events.
	SetPosition(r3.Vec)
	SetTarget(r3.Vec)
}

// SelectionState describes how many points are selected.
type SelectionState int

const (
	SelectionEmpty SelectionState = iota
	SelectionSingle
	SelectionMulti
)

func (s SelectionState) String() string {
	switch s {
	case SelectionEmpty:
		return "empty"
	case SelectionSingle:
		return "single"
	default:
		return "multi"
	}
}

// HoverEvent is emitted when the hovered point changes. Point is the zero
// value when hovering stopped.
type HoverEvent struct {
	Hovering bool
	Point    models.Point
}

// Machine is the interaction state of a view. It must not be used
// concurrently.
type Machine struct {
	// The store hover, selection and camera state is written to.
	Store store.Store

	// The origin tagging the changes made by the view store.
	Origin store.Origin

	Picker Picker

	// Returns the points currently shown.
	Points func() []models.Point

	View View

	// Called when the tooltip is shown, moved or hidden.
	Tooltip func(Tooltip)

	// Prevents the tooltip from being shown.
	DisableTooltip bool

	hovered          *picking.Identity
	applyingExternal bool
	cancelObservers  []func()

	hoverListeners     listeners[HoverEvent]
	clickListeners     listeners[models.Point]
	selectionListeners listeners[[]string]
}

// Bind starts applying external camera changes to the view.
func (m *Machine) Bind() {
	m.cancelObservers = append(m.cancelObservers,
		m.Store.Observe(store.KeyCameraPosition, m.applyCamera),
		m.Store.Observe(store.KeyCameraTarget, m.applyCamera),
	)
}

// Close unbinds the machine from the store.
func (m *Machine) Close() {
	for _, cancel := range m.cancelObservers {
		cancel()
	}
	m.cancelObservers = nil
}

// Hovered returns the identity of the hovered point.
func (m *Machine) Hovered() (picking.Identity, bool) {
	if m.hovered == nil {
		return picking.Identity{}, false
	}
	return *m.hovered, true
}

// Selection returns the ids of the selected points.
func (m *Machine) Selection() []string {
	return store.StringSlice(m.Store, store.KeySelectedPoints)
}

func (m *Machine) SelectionState() SelectionState {
	switch n := len(m.Selection()); {
	case n == 0:
		return SelectionEmpty
	case n == 1:
		return SelectionSingle
	default:
		return SelectionMulti
	}
}

// PointerMove updates the hovered point from the pointer position in
// pixels.
func (m *Machine) PointerMove(x, y float64) error {
	id, ok := m.pick(x, y)
	if !ok {
		return m.PointerLeave()
	}

	points := m.points()
	if id.Index < 0 || id.Index >= len(points) {
		return nil
	}
	if m.hovered != nil && m.hovered.ID == id.ID {
		return nil
	}

	p := points[id.Index]
	m.hovered = &id
	m.Store.Set(store.KeyHoveredPoint, p.Record)
	err := m.Store.Commit()

	m.showTooltip(p, x, y)
	m.hoverListeners.notify(HoverEvent{Hovering: true, Point: p})
	return err
}

// PointerLeave clears the hovered point.
func (m *Machine) PointerLeave() error {
	if m.hovered == nil {
		return nil
	}

	m.hovered = nil
	m.Store.Set(store.KeyHoveredPoint, nil)
	err := m.Store.Commit()

	m.hideTooltip()
	m.hoverListeners.notify(HoverEvent{})
	return err
}

// Click updates the selection from a click position in pixels.
func (m *Machine) Click(x, y float64) error {
	id, ok := m.pick(x, y)
	if !ok {
		return m.Select(nil)
	}

	selection := m.Selection()
	mode := store.String(m.Store, store.KeySelectionMode)

	if mode == SelectionModeClick || mode == "" {
		selection = []string{id.ID}
	} else {
		selection = toggle(selection, id.ID)
	}

	if points := m.points(); id.Index >= 0 && id.Index < len(points) {
		m.clickListeners.notify(points[id.Index])
	}
	return m.Select(selection)
}

// Select replaces the selection.
func (m *Machine) Select(ids []string) error {
	if ids == nil {
		ids = []string{}
	}

	m.Store.Set(store.KeySelectedPoints, ids)
	err := m.Store.Commit()

	m.selectionListeners.notify(ids)
	return err
}

// CameraChanged writes the view camera to the store. It does nothing while
// an external camera update is applied.
func (m *Machine) CameraChanged() error {
	if m.applyingExternal || m.View == nil {
		return nil
	}

	m.Store.Set(store.KeyCameraPosition, store.VecValue(m.View.Position()))
	m.Store.Set(store.KeyCameraTarget, store.VecValue(m.View.Target()))
	return m.Store.Commit()
}

// OnHover registers a function called when the hovered point changes.
func (m *Machine) OnHover(h func(HoverEvent)) (cancel func()) {
	return m.hoverListeners.add(h)
}

// OnClick registers a function called when a point is clicked.
func (m *Machine) OnClick(h func(models.Point)) (cancel func()) {
	return m.clickListeners.add(h)
}

// OnSelection registers a function called with the new selection.
func (m *Machine) OnSelection(h func([]string)) (cancel func()) {
	return m.selectionListeners.add(h)
}

func (m *Machine) applyCamera(c store.Change) {
	if c.Origin == m.Origin || m.View == nil {
		return
	}

	v, ok := store.AsVec3(c.Value)
	if !ok {
		return
	}

	m.applyingExternal = true
	defer func() { m.applyingExternal = false }()

	switch c.Key {
	case store.KeyCameraPosition:
		m.View.SetPosition(v)
	case store.KeyCameraTarget:
		m.View.SetTarget(v)
	}
}

func (m *Machine) pick(x, y float64) (picking.Identity, bool) {
	if m.Picker == nil {
		return picking.Identity{}, false
	}
	return m.Picker.Pick(x, y)
}

func (m *Machine) points() []models.Point {
	if m.Points == nil {
		return nil
	}
	return m.Points()
}

func (m *Machine) showTooltip(p models.Point, x, y float64) {
	if m.Tooltip == nil || m.DisableTooltip || !store.Bool(m.Store, store.KeyShowTooltip) {
		return
	}
	fields := store.StringSlice(m.Store, store.KeyTooltipFields)
	m.Tooltip(Annotate(p, fields, x, y))
}

func (m *Machine) hideTooltip() {
	if m.Tooltip != nil {
		m.Tooltip(Tooltip{})
	}
}

func toggle(ids []string, id string) []string {
	res := make([]string, 0, len(ids)+1)
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		res = append(res, v)
	}
	if !removed {
		res = append(res, id)
	}
	return res
}

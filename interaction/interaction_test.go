package interaction

import (
	"testing"

	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/picking"
	"github.com/aukilabs/vectorspace/store"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
	"pgregory.net/rapid"
)

// Picks the point whose index is the x position.
type picker struct {
	points []models.Point
}

func (p picker) Pick(x, y float64) (picking.Identity, bool) {
	i := int(x)
	if x < 0 || i >= len(p.points) {
		return picking.Identity{}, false
	}
	return picking.Identity{Index: i, ID: p.points[i].ID}, true
}

type view struct {
	position r3.Vec
	target   r3.Vec
}

func (v *view) Position() r3.Vec      { return v.position }
func (v *view) Target() r3.Vec        { return v.target }
func (v *view) SetPosition(p r3.Vec) { v.position = p }
func (v *view) SetTarget(t r3.Vec)   { v.target = t }

type env struct {
	machine  *Machine
	store    *store.Memory
	view     *view
	commits  [][]store.Change
	tooltips []Tooltip
}

func newEnv(t *testing.T) *env {
	points := []models.Point{
		models.ParsePoint(map[string]any{"id": "a", "label": "Alpha", "x": 1.0, "y": 2.0, "z": 0.12345}, 0),
		models.ParsePoint(map[string]any{"id": "b", "x": 3.0}, 1),
		models.ParsePoint(map[string]any{"id": "c"}, 2),
	}

	e := &env{view: &view{}}
	e.store = &store.Memory{
		Origin: "participant-1",
		Flusher: func(changes []store.Change) error {
			e.commits = append(e.commits, changes)
			return nil
		},
	}
	e.machine = &Machine{
		Store:  e.store,
		Origin: e.store.Origin,
		Picker: picker{points: points},
		Points: func() []models.Point { return points },
		View:   e.view,
		Tooltip: func(t Tooltip) {
			e.tooltips = append(e.tooltips, t)
		},
	}
	e.machine.Bind()
	t.Cleanup(e.machine.Close)
	return e
}

func TestMachineHover(t *testing.T) {
	t.Run("hovering a point", func(t *testing.T) {
		e := newEnv(t)

		require.NoError(t, e.machine.PointerMove(0, 10))
		require.Len(t, e.commits, 1)
		require.Equal(t, store.KeyHoveredPoint, e.commits[0][0].Key)
		require.Equal(t, "a", e.commits[0][0].Value.(map[string]any)["id"])

		id, ok := e.machine.Hovered()
		require.True(t, ok)
		require.Equal(t, "a", id.ID)

		require.Len(t, e.tooltips, 1)
		require.Equal(t, Tooltip{
			Visible: true,
			X:       15,
			Y:       25,
			Label:   "Alpha",
			Rows: []TooltipRow{
				{Field: "x", Value: "1.000"},
				{Field: "y", Value: "2.000"},
				{Field: "z", Value: "0.123"},
			},
		}, e.tooltips[0])
	})

	t.Run("moving over the same point", func(t *testing.T) {
		e := newEnv(t)

		require.NoError(t, e.machine.PointerMove(0, 10))
		require.NoError(t, e.machine.PointerMove(0.5, 12))
		require.Len(t, e.commits, 1)
		require.Len(t, e.tooltips, 1)
	})

	t.Run("moving to another point", func(t *testing.T) {
		e := newEnv(t)

		require.NoError(t, e.machine.PointerMove(0, 0))
		require.NoError(t, e.machine.PointerMove(1, 0))
		require.Len(t, e.commits, 2)
		require.Equal(t, "b", e.commits[1][0].Value.(map[string]any)["id"])
		require.Equal(t, []TooltipRow{{Field: "x", Value: "3.000"}}, e.tooltips[1].Rows)
	})

	t.Run("leaving a point", func(t *testing.T) {
		e := newEnv(t)

		require.NoError(t, e.machine.PointerMove(0, 0))
		require.NoError(t, e.machine.PointerMove(-1, 0))
		require.Len(t, e.commits, 2)
		require.Equal(t, store.Change{
			Key:    store.KeyHoveredPoint,
			Origin: "participant-1",
		}, e.commits[1][0])
		require.Equal(t, Tooltip{}, e.tooltips[1])

		_, ok := e.machine.Hovered()
		require.False(t, ok)
	})

	t.Run("moving over nothing", func(t *testing.T) {
		e := newEnv(t)

		require.NoError(t, e.machine.PointerMove(-1, 0))
		require.NoError(t, e.machine.PointerLeave())
		require.Empty(t, e.commits)
		require.Empty(t, e.tooltips)
	})

	t.Run("tooltip disabled", func(t *testing.T) {
		e := newEnv(t)
		e.store.Set(store.KeyShowTooltip, false)

		require.NoError(t, e.machine.PointerMove(0, 0))
		require.Empty(t, e.tooltips)
		require.NoError(t, e.machine.PointerMove(-1, 0))
		require.Equal(t, []Tooltip{{}}, e.tooltips)
	})

	t.Run("listeners", func(t *testing.T) {
		e := newEnv(t)

		var events []HoverEvent
		cancel := e.machine.OnHover(func(h HoverEvent) {
			events = append(events, h)
		})

		require.NoError(t, e.machine.PointerMove(2, 0))
		require.NoError(t, e.machine.PointerLeave())
		cancel()
		require.NoError(t, e.machine.PointerMove(1, 0))

		require.Len(t, events, 2)
		require.True(t, events[0].Hovering)
		require.Equal(t, "c", events[0].Point.ID)
		require.False(t, events[1].Hovering)
	})
}

func TestMachineClick(t *testing.T) {
	t.Run("click mode", func(t *testing.T) {
		e := newEnv(t)

		require.NoError(t, e.machine.Click(0, 0))
		require.NoError(t, e.machine.Click(1, 0))
		require.Equal(t, []string{"b"}, e.machine.Selection())
		require.Equal(t, SelectionSingle, e.machine.SelectionState())
		require.Len(t, e.commits, 2)
	})

	t.Run("multi mode toggles", func(t *testing.T) {
		e := newEnv(t)
		e.store.Set(store.KeySelectionMode, SelectionModeMulti)

		require.NoError(t, e.machine.Click(0, 0))
		require.NoError(t, e.machine.Click(2, 0))
		require.Equal(t, []string{"a", "c"}, e.machine.Selection())
		require.Equal(t, SelectionMulti, e.machine.SelectionState())

		require.NoError(t, e.machine.Click(0, 0))
		require.Equal(t, []string{"c"}, e.machine.Selection())
	})

	t.Run("click on nothing clears", func(t *testing.T) {
		e := newEnv(t)
		e.store.Set(store.KeySelectionMode, SelectionModeMulti)

		require.NoError(t, e.machine.Click(0, 0))
		require.NoError(t, e.machine.Click(-1, 0))
		require.Empty(t, e.machine.Selection())
		require.Equal(t, SelectionEmpty, e.machine.SelectionState())
	})

	t.Run("listeners", func(t *testing.T) {
		e := newEnv(t)

		var clicked []string
		var selections [][]string
		e.machine.OnClick(func(p models.Point) {
			clicked = append(clicked, p.ID)
		})
		e.machine.OnSelection(func(ids []string) {
			selections = append(selections, ids)
		})

		require.NoError(t, e.machine.Click(1, 0))
		require.NoError(t, e.machine.Click(-1, 0))
		require.Equal(t, []string{"b"}, clicked)
		require.Equal(t, [][]string{{"b"}, {}}, selections)
	})
}

func TestMultiSelectionToggle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var s store.Memory
		s.Set(store.KeySelectionMode, SelectionModeMulti)

		points := []models.Point{
			models.NewPoint("a", 0, 0, 0),
			models.NewPoint("b", 0, 0, 0),
			models.NewPoint("c", 0, 0, 0),
		}
		m := Machine{
			Store:  &s,
			Picker: picker{points: points},
			Points: func() []models.Point { return points },
		}

		clicks := rapid.SliceOf(rapid.IntRange(0, 2)).Draw(t, "clicks")
		counts := make(map[string]int)
		for _, i := range clicks {
			require.NoError(t, m.Click(float64(i), 0))
			counts[points[i].ID]++
		}

		selection := m.Selection()
		for _, p := range points {
			require.Equal(t, counts[p.ID]%2 == 1, contains(selection, p.ID), p.ID)
		}
	})
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestMachineCamera(t *testing.T) {
	t.Run("view changes are written", func(t *testing.T) {
		e := newEnv(t)
		e.view.position = r3.Vec{X: 1, Y: 2, Z: 3}
		e.view.target = r3.Vec{X: 0.5}

		require.NoError(t, e.machine.CameraChanged())
		require.Len(t, e.commits, 1)
		require.Equal(t, []store.Change{
			{Key: store.KeyCameraPosition, Value: []float64{1, 2, 3}, Origin: "participant-1"},
			{Key: store.KeyCameraTarget, Value: []float64{0.5, 0, 0}, Origin: "participant-1"},
		}, e.commits[0])

		// Self-originated changes do not move the view.
		require.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, e.view.position)
	})

	t.Run("external changes are applied", func(t *testing.T) {
		e := newEnv(t)

		e.store.Apply(
			store.Change{Key: store.KeyCameraPosition, Value: []any{4.0, 5.0, 6.0}},
			store.Change{Key: store.KeyCameraTarget, Value: []float64{1, 1, 1}, Origin: "participant-2"},
		)
		require.Equal(t, r3.Vec{X: 4, Y: 5, Z: 6}, e.view.position)
		require.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, e.view.target)
		require.Empty(t, e.commits)
	})

	t.Run("invalid external values are ignored", func(t *testing.T) {
		e := newEnv(t)
		e.view.position = r3.Vec{X: 7}

		e.store.Apply(store.Change{Key: store.KeyCameraPosition, Value: "nope"})
		require.Equal(t, r3.Vec{X: 7}, e.view.position)
	})

	t.Run("changes emitted while applying are ignored", func(t *testing.T) {
		e := newEnv(t)
		e.machine.View = &emittingView{view: e.view, machine: e.machine}

		e.store.Apply(store.Change{Key: store.KeyCameraPosition, Value: []float64{1, 0, 0}})
		require.Equal(t, r3.Vec{X: 1}, e.view.position)
		require.Empty(t, e.commits)
	})

	t.Run("closed machine ignores changes", func(t *testing.T) {
		e := newEnv(t)
		e.machine.Close()

		e.store.Apply(store.Change{Key: store.KeyCameraPosition, Value: []float64{1, 0, 0}})
		require.Equal(t, r3.Vec{}, e.view.position)
	})
}

// A view notifying the machine from its setters.
type emittingView struct {
	*view
	machine *Machine
}

func (v *emittingView) SetPosition(p r3.Vec) {
	v.view.SetPosition(p)
	v.machine.CameraChanged()
}

func TestAnnotate(t *testing.T) {
	p := models.ParsePoint(map[string]any{
		"id":       "a",
		"label":    "Alpha",
		"category": "cat",
		"flag":     true,
		"empty":    nil,
		"score":    0.9999,
	}, 0)

	tooltip := Annotate(p, []string{"label", "category", "missing", "flag", "empty", "score"}, 10, 20)
	require.Equal(t, Tooltip{
		Visible: true,
		X:       25,
		Y:       35,
		Label:   "Alpha",
		Rows: []TooltipRow{
			{Field: "category", Value: "cat"},
			{Field: "flag", Value: "true"},
			{Field: "empty", Value: "null"},
			{Field: "score", Value: "1.000"},
		},
	}, tooltip)
}

func TestToFixed(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		expected string
	}{
		{value: 0, decimals: 3, expected: "0.000"},
		{value: 1, decimals: 3, expected: "1.000"},
		{value: 0.12345, decimals: 3, expected: "0.123"},
		{value: 0.0625, decimals: 3, expected: "0.063"},
		{value: -0.0625, decimals: 3, expected: "-0.063"},
		{value: 9.9996, decimals: 3, expected: "10.000"},
		{value: 2.5, decimals: 0, expected: "3"},
		{value: 1234.5678, decimals: 2, expected: "1234.57"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			require.Equal(t, test.expected, ToFixed(test.value, test.decimals))
		})
	}
}

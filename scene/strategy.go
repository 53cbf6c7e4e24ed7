package scene

import (
	"github.com/aukilabs/vectorspace/encoding"
	"github.com/aukilabs/vectorspace/models"
)

// InstancingThreshold is the number of points above which points are drawn
// with instanced meshes when instancing is enabled.
const InstancingThreshold = 100

// UseInstancing reports whether n points are drawn with instanced meshes.
func UseInstancing(enabled bool, n int) bool {
	return enabled && n > InstancingThreshold
}

// Strategy builds the objects representing a point set.
type Strategy interface {
	Name() string
	Build(res *Resources, points []models.Point, c encoding.Config) []Object
}

// SelectStrategy returns the strategy used to draw n points.
func SelectStrategy(instancing bool, n int) Strategy {
	if UseInstancing(instancing, n) {
		return Instanced{}
	}
	return Individual{}
}

// Individual draws one mesh per point, each with its own geometry and
// material.
type Individual struct{}

func (Individual) Name() string {
	return "individual"
}

func (Individual) Build(res *Resources, points []models.Point, c encoding.Config) []Object {
	objects := make([]Object, len(points))
	for i, p := range points {
		r := c.Resolve(p)
		objects[i] = &Mesh{
			Geometry:   NewGeometry(res, r.Shape),
			Material:   NewMaterial(res, r.Color),
			Position:   p.Position,
			Scale:      r.Size,
			PointIndex: i,
			PointID:    p.ID,
		}
	}
	return objects
}

// Instanced draws one instanced mesh per distinct shape, in the order the
// shapes first appear in the point set.
type Instanced struct{}

func (Instanced) Name() string {
	return "instanced"
}

func (Instanced) Build(res *Resources, points []models.Point, c encoding.Config) []Object {
	var shapes []encoding.Shape
	batches := make(map[encoding.Shape]*InstancedMesh)

	for i, p := range points {
		r := c.Resolve(p)

		batch, ok := batches[r.Shape]
		if !ok {
			batch = &InstancedMesh{}
			batches[r.Shape] = batch
			shapes = append(shapes, r.Shape)
		}

		batch.Instances = append(batch.Instances, Instance{
			Position: p.Position,
			Scale:    r.Size,
			Color:    r.Color,
		})
		batch.PointIndices = append(batch.PointIndices, i)
		batch.PointIDs = append(batch.PointIDs, p.ID)
	}

	objects := make([]Object, len(shapes))
	for i, shape := range shapes {
		batch := batches[shape]
		batch.Geometry = NewGeometry(res, shape)
		batch.Material = NewMaterial(res, encoding.DefaultColor)
		batch.Material.InstanceColors = true
		objects[i] = batch
	}
	return objects
}

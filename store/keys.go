package store

const (
	KeyPoints            = "points"
	KeyBackground        = "background"
	KeyWidth             = "width"
	KeyHeight            = "height"
	KeyCameraPosition    = "camera_position"
	KeyCameraTarget      = "camera_target"
	KeyShowAxes          = "show_axes"
	KeyShowGrid          = "show_grid"
	KeyAxisLabels        = "axis_labels"
	KeyGridDivisions     = "grid_divisions"
	KeyColorField        = "color_field"
	KeyColorScale        = "color_scale"
	KeyColorDomain       = "color_domain"
	KeySizeField         = "size_field"
	KeySizeRange         = "size_range"
	KeyShapeField        = "shape_field"
	KeyShapeMap          = "shape_map"
	KeyUseInstancing     = "use_instancing"
	KeyShowConnections   = "show_connections"
	KeyKNeighbors        = "k_neighbors"
	KeyDistanceThreshold = "distance_threshold"
	KeyReferencePoint    = "reference_point"
	KeyDistanceMetric    = "distance_metric"
	KeyConnectionColor   = "connection_color"
	KeyConnectionOpacity = "connection_opacity"
	KeySelectionMode     = "selection_mode"
	KeyShowTooltip       = "show_tooltip"
	KeyTooltipFields     = "tooltip_fields"
	KeyHoveredPoint      = "hovered_point"
	KeySelectedPoints    = "selected_points"
)

// Default returns the default value of a key. Unknown keys default to nil.
func Default(key string) any {
	switch key {
	case KeyPoints:
		return []any{}
	case KeyBackground:
		return "#1a1a2e"
	case KeyWidth:
		return 800.0
	case KeyHeight:
		return 600.0
	case KeyCameraPosition:
		return []float64{2, 2, 2}
	case KeyCameraTarget:
		return []float64{0, 0, 0}
	case KeyShowAxes, KeyShowGrid, KeyUseInstancing, KeyShowTooltip:
		return true
	case KeyAxisLabels:
		return map[string]any{"x": "X", "y": "Y", "z": "Z"}
	case KeyGridDivisions:
		return 10.0
	case KeyColorScale:
		return "viridis"
	case KeySizeRange:
		return []float64{0.02, 0.1}
	case KeyShapeMap:
		return map[string]any{}
	case KeyShowConnections:
		return false
	case KeyKNeighbors:
		return 0.0
	case KeyDistanceMetric:
		return "euclidean"
	case KeyConnectionColor:
		return "#ffffff"
	case KeyConnectionOpacity:
		return 0.3
	case KeySelectionMode:
		return "click"
	case KeyTooltipFields:
		return []any{"label", "x", "y", "z"}
	case KeySelectedPoints:
		return []any{}
	default:
		return nil
	}
}

// Keys lists every key read or written by a view.
var Keys = []string{
	KeyPoints,
	KeyBackground,
	KeyWidth,
	KeyHeight,
	KeyCameraPosition,
	KeyCameraTarget,
	KeyShowAxes,
	KeyShowGrid,
	KeyAxisLabels,
	KeyGridDivisions,
	KeyColorField,
	KeyColorScale,
	KeyColorDomain,
	KeySizeField,
	KeySizeRange,
	KeyShapeField,
	KeyShapeMap,
	KeyUseInstancing,
	KeyShowConnections,
	KeyKNeighbors,
	KeyDistanceThreshold,
	KeyReferencePoint,
	KeyDistanceMetric,
	KeyConnectionColor,
	KeyConnectionOpacity,
	KeySelectionMode,
	KeyShowTooltip,
	KeyTooltipFields,
	KeyHoveredPoint,
	KeySelectedPoints,
}

// Defaults returns the default value of every key.
func Defaults() map[string]any {
	values := make(map[string]any, len(Keys))
	for _, k := range Keys {
		values[k] = Default(k)
	}
	return values
}

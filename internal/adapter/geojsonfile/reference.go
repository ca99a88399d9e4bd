// Package geojsonfile loads GeoJSON reference data: MLIT N06 highway
// time-series features and pre-cut inter-IC segment extracts. Property
// keys follow the N06 data dictionary (N06_018 is the interchange name,
// N06_007 the route name).
package geojsonfile

import (
	"fmt"
	"log/slog"
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"

	"github.com/wildpath/roadkill-map/internal/domain"
)

const (
	propInterchangeName = "N06_018"
	propRouteName       = "N06_007"
	propStartIC         = "start_IC"
	propEndIC           = "end_IC"
)

// Loader reads reference geometries from GeoJSON files.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadInterchanges reads interchange point features. Features without a
// name or a point geometry are skipped.
func (l *Loader) LoadInterchanges(path string) ([]domain.InterchangePoint, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	var points []domain.InterchangePoint
	skipped := 0
	for _, f := range fc.Features {
		name, err := f.PropertyString(propInterchangeName)
		if err != nil || name == "" || f.Geometry == nil || !f.Geometry.IsPoint() {
			skipped++
			continue
		}
		points = append(points, domain.InterchangePoint{
			Name:  name,
			Point: toPoint(f.Geometry.Point),
		})
	}

	if skipped > 0 {
		l.logger.Warn("skipped unusable interchange features", "path", path, "skipped", skipped)
	}
	l.logger.Info("loaded interchange points", "path", path, "count", len(points))
	return points, nil
}

// LoadRouteLines reads route polyline features. MultiLineString features
// contribute one RouteLine per part; the reference index merges parts
// sharing a route name.
func (l *Loader) LoadRouteLines(path string) ([]domain.RouteLine, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	var lines []domain.RouteLine
	skipped := 0
	for _, f := range fc.Features {
		name, err := f.PropertyString(propRouteName)
		if err != nil || name == "" || f.Geometry == nil {
			skipped++
			continue
		}
		switch {
		case f.Geometry.IsLineString():
			lines = append(lines, domain.RouteLine{
				RouteName: name,
				Line:      toLineString(f.Geometry.LineString),
			})
		case f.Geometry.IsMultiLineString():
			for _, part := range f.Geometry.MultiLineString {
				lines = append(lines, domain.RouteLine{
					RouteName: name,
					Line:      toLineString(part),
				})
			}
		default:
			skipped++
		}
	}

	if skipped > 0 {
		l.logger.Warn("skipped unusable route features", "path", path, "skipped", skipped)
	}
	l.logger.Info("loaded route lines", "path", path, "count", len(lines))
	return lines, nil
}

// LoadCutSegments reads pre-cut inter-IC segment features carrying
// start_IC/end_IC properties and a LineString geometry.
func (l *Loader) LoadCutSegments(path string) ([]domain.CutSegment, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	var segments []domain.CutSegment
	skipped := 0
	for _, f := range fc.Features {
		start, errStart := f.PropertyString(propStartIC)
		end, errEnd := f.PropertyString(propEndIC)
		if errStart != nil || errEnd != nil || start == "" || end == "" ||
			f.Geometry == nil || !f.Geometry.IsLineString() {
			skipped++
			continue
		}
		route, _ := f.PropertyString(propRouteName)
		segments = append(segments, domain.CutSegment{
			RouteName: route,
			StartIC:   start,
			EndIC:     end,
			Geometry:  toLineString(f.Geometry.LineString),
		})
	}

	if skipped > 0 {
		l.logger.Warn("skipped unusable cut segment features", "path", path, "skipped", skipped)
	}
	l.logger.Info("loaded cut segments", "path", path, "count", len(segments))
	return segments, nil
}

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

func toPoint(coords []float64) orb.Point {
	if len(coords) < 2 {
		return orb.Point{}
	}
	return orb.Point{coords[0], coords[1]}
}

func toLineString(coords [][]float64) orb.LineString {
	line := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		line = append(line, orb.Point{c[0], c[1]})
	}
	return line
}

package geojsonfile

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildpath/roadkill-map/internal/domain"
)

func testLoader() *Loader {
	return NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeTempGeoJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const interchangeGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [140.4258, 36.3416]},
      "properties": {"N06_018": "水戸ＩＣ", "N06_007": "常磐自動車道"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [140.48, 36.41]},
      "properties": {"N06_018": "那珂ＩＣ", "N06_007": "常磐自動車道"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [139.0, 36.0]},
      "properties": {"N06_007": "名無自動車道"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[139.0, 36.0], [139.1, 36.1]]},
      "properties": {"N06_018": "線ＩＣ"}
    }
  ]
}`

func TestLoader_LoadInterchanges(t *testing.T) {
	path := writeTempGeoJSON(t, interchangeGeoJSON)

	points, err := testLoader().LoadInterchanges(path)
	require.NoError(t, err)

	// The nameless feature and the non-point feature are skipped.
	require.Len(t, points, 2)
	assert.Equal(t, "水戸ＩＣ", points[0].Name)
	assert.Equal(t, orb.Point{140.4258, 36.3416}, points[0].Point)
	assert.Equal(t, "那珂ＩＣ", points[1].Name)
}

const routeGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[140.0, 36.0], [140.0, 36.5]]},
      "properties": {"N06_007": "常磐自動車道"}
    },
    {
      "type": "Feature",
      "geometry": {
        "type": "MultiLineString",
        "coordinates": [
          [[139.0, 36.0], [139.0, 36.5]],
          [[139.0, 36.5], [139.0, 37.0]]
        ]
      },
      "properties": {"N06_007": "東北自動車道"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [139.5, 36.5]},
      "properties": {"N06_007": "点自動車道"}
    }
  ]
}`

func TestLoader_LoadRouteLines(t *testing.T) {
	path := writeTempGeoJSON(t, routeGeoJSON)

	lines, err := testLoader().LoadRouteLines(path)
	require.NoError(t, err)

	// One LineString plus two MultiLineString parts; the point feature is skipped.
	require.Len(t, lines, 3)
	assert.Equal(t, "常磐自動車道", lines[0].RouteName)
	assert.Equal(t, orb.LineString{{140.0, 36.0}, {140.0, 36.5}}, lines[0].Line)
	assert.Equal(t, "東北自動車道", lines[1].RouteName)
	assert.Equal(t, "東北自動車道", lines[2].RouteName)
	assert.Equal(t, orb.LineString{{139.0, 36.5}, {139.0, 37.0}}, lines[2].Line)
}

const cutSegmentGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[140.42, 36.34], [140.48, 36.41]]},
      "properties": {"N06_007": "常磐自動車道", "start_IC": "水戸ＩＣ", "end_IC": "那珂ＩＣ"}
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[140.48, 36.41], [140.52, 36.50]]},
      "properties": {"N06_007": "常磐自動車道", "start_IC": "那珂ＩＣ"}
    }
  ]
}`

func TestLoader_LoadCutSegments(t *testing.T) {
	path := writeTempGeoJSON(t, cutSegmentGeoJSON)

	segments, err := testLoader().LoadCutSegments(path)
	require.NoError(t, err)

	// The feature missing end_IC is skipped.
	require.Len(t, segments, 1)
	assert.Equal(t, "常磐自動車道", segments[0].RouteName)
	assert.Equal(t, "水戸ＩＣ", segments[0].StartIC)
	assert.Equal(t, "那珂ＩＣ", segments[0].EndIC)
	assert.Equal(t, orb.LineString{{140.42, 36.34}, {140.48, 36.41}}, segments[0].Geometry)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := testLoader().LoadInterchanges(filepath.Join(t.TempDir(), "nope.geojson"))
	require.Error(t, err)
}

func TestLoader_MalformedJSON(t *testing.T) {
	path := writeTempGeoJSON(t, `{"type": "FeatureCollection", "features": [`)
	_, err := testLoader().LoadRouteLines(path)
	require.Error(t, err)
}

func TestExportDensity(t *testing.T) {
	result := domain.DensityResult{
		Segments: []domain.ResolvedSegment{
			{
				RouteName:    "常磐道",
				Section:      "水戸ＩＣ〜那珂ＩＣ",
				Start:        orb.Point{140.42, 36.34},
				End:          orb.Point{140.48, 36.41},
				Count:        3,
				LengthKm:     10.0,
				DensityPerKm: 0.3,
				Description:  "desc",
			},
			{
				RouteName: "常磐道",
				Section:   "那珂ＩＣ〜日立南太田ＩＣ",
				Geometry:  orb.LineString{{140.48, 36.41}, {140.52, 36.50}, {140.60, 36.55}},
				Count:     1,
				LengthKm:  15.0,
			},
		},
	}

	fc := ExportDensity(result)
	require.Len(t, fc.Features, 2)

	// Endpoint-only segments degrade to a two-point line.
	first := fc.Features[0]
	require.True(t, first.Geometry.IsLineString())
	assert.Equal(t, [][]float64{{140.42, 36.34}, {140.48, 36.41}}, first.Geometry.LineString)
	assert.Equal(t, "常磐道", first.Properties["route_name"])
	assert.Equal(t, 3, first.Properties["count"])
	assert.Equal(t, 0.3, first.Properties["density_per_km"])

	// Pre-cut segments keep the full polyline.
	second := fc.Features[1]
	require.True(t, second.Geometry.IsLineString())
	assert.Len(t, second.Geometry.LineString, 3)
}

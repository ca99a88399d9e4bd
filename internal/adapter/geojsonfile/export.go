package geojsonfile

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/wildpath/roadkill-map/internal/domain"
)

// ExportDensity renders a density map as a GeoJSON feature collection.
// Segments with a polyline become LineString features; endpoint-only
// segments become a two-point LineString between start and end.
func ExportDensity(result domain.DensityResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, seg := range result.Segments {
		f := geojson.NewFeature(segmentGeometry(seg))
		f.SetProperty("route_name", seg.RouteName)
		f.SetProperty("section", seg.Section)
		f.SetProperty("count", seg.Count)
		f.SetProperty("length_km", seg.LengthKm)
		f.SetProperty("density_per_km", seg.DensityPerKm)
		f.SetProperty("description", seg.Description)
		fc.AddFeature(f)
	}
	return fc
}

func segmentGeometry(seg domain.ResolvedSegment) *geojson.Geometry {
	if len(seg.Geometry) >= 2 {
		coords := make([][]float64, 0, len(seg.Geometry))
		for _, p := range seg.Geometry {
			coords = append(coords, []float64{p.Lon(), p.Lat()})
		}
		return geojson.NewLineStringGeometry(coords)
	}
	return geojson.NewLineStringGeometry([][]float64{
		{seg.Start.Lon(), seg.Start.Lat()},
		{seg.End.Lon(), seg.End.Lat()},
	})
}

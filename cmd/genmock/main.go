// Command genmock generates a small synthetic data set for local
// development and the HTTP demo: an incident CSV plus matching reference
// GeoJSON files. It runs the actual resolution over the generated data so
// the fixtures are guaranteed to resolve end to end.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"

	"github.com/wildpath/roadkill-map/internal/domain"
)

// seed is fixed so regenerated fixtures stay byte-stable across runs.
const seed = 20190401

// mockIC is one interchange on the synthetic corridor. Positions run
// south to north along a meridian.
type mockIC struct {
	name string
	lat  float64
}

type mockRoute struct {
	official string // reference key, e.g. 常磐自動車道
	display  string // log spelling, e.g. 常磐道
	lon      float64
	ics      []mockIC
}

var routes = []mockRoute{
	{
		official: "常磐自動車道", display: "常磐道", lon: 140.42,
		ics: []mockIC{
			{"水戸ＩＣ", 36.34}, {"那珂ＩＣ", 36.41}, {"日立南太田ＩＣ", 36.52}, {"日立中央ＩＣ", 36.60},
		},
	},
	{
		official: "東北自動車道", display: "東北道", lon: 139.70,
		ics: []mockIC{
			{"宇都宮ＩＣ", 36.60}, {"矢板ＩＣ", 36.78}, {"西那須野塩原ＩＣ", 36.92},
		},
	},
}

var (
	weekdays = []string{"月", "火", "水", "木", "金", "土", "日"}
	weathers = []string{"晴", "曇", "雨", "雪"}
	species  = []string{"タヌキ", "ネコ", "シカ", "イヌ", "アナグマ", "ハクビシン"}
)

func main() {
	outDir := flag.String("out-dir", "data/mock", "output directory for generated fixtures")
	count := flag.Int("count", 300, "number of incident rows to generate")
	flag.Parse()

	if err := run(*outDir, *count); err != nil {
		log.Fatal(err)
	}
}

func run(outDir string, count int) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	records := generateIncidents(count)
	if err := writeIncidentCSV(filepath.Join(outDir, "incidents.csv"), records); err != nil {
		return fmt.Errorf("write incidents: %w", err)
	}
	log.Printf("incidents: %d rows", len(records))

	if err := writeInterchanges(filepath.Join(outDir, "interchanges.geojson")); err != nil {
		return fmt.Errorf("write interchanges: %w", err)
	}
	if err := writeRoutes(filepath.Join(outDir, "routes.geojson")); err != nil {
		return fmt.Errorf("write routes: %w", err)
	}
	if err := writeSegments(filepath.Join(outDir, "segments.geojson")); err != nil {
		return fmt.Errorf("write segments: %w", err)
	}

	return verify(records)
}

// verify runs the real resolution over the generated set and fails if any
// section cannot be placed.
func verify(records []domain.IncidentRecord) error {
	index, err := domain.BuildReferenceIndex(interchangePoints(), routeLines())
	if err != nil {
		return err
	}
	resolver := domain.NewResolver(index, domain.DefaultDistanceThresholdMeters)

	counts := domain.AggregateSections(records)
	result := domain.BuildDensityMap(counts, resolver)
	if len(result.Segments) != len(counts) {
		return fmt.Errorf("generated data does not fully resolve: %d of %d sections placed",
			len(result.Segments), len(counts))
	}
	log.Printf("verified: all %d sections resolve, max density %.3f", len(counts), result.MaxDensity)
	return nil
}

func generateIncidents(count int) []domain.IncidentRecord {
	rng := rand.New(rand.NewSource(seed))

	var records []domain.IncidentRecord
	for i := 0; i < count; i++ {
		route := routes[rng.Intn(len(routes))]
		start := rng.Intn(len(route.ics) - 1)
		a, b := route.ics[start], route.ics[start+1]

		records = append(records, domain.IncidentRecord{
			RouteName:    route.display,
			OfficialName: route.official,
			Section:      a.name + domain.SectionSeparator + b.name,
			Direction:    []string{"上り", "下り"}[rng.Intn(2)],
			Month:        1 + rng.Intn(12),
			Hour:         rng.Intn(24),
			Weekday:      weekdays[rng.Intn(len(weekdays))],
			Weather:      weathers[rng.Intn(len(weathers))],
			Species:      species[rng.Intn(len(species))],
			LengthKm:     sectionLengthKm(a, b),
		})
	}
	return records
}

// sectionLengthKm approximates the meridian distance between consecutive ICs.
func sectionLengthKm(a, b mockIC) float64 {
	return (b.lat - a.lat) * 111
}

func interchangePoints() []domain.InterchangePoint {
	var points []domain.InterchangePoint
	for _, r := range routes {
		for _, ic := range r.ics {
			points = append(points, domain.InterchangePoint{
				Name:  ic.name,
				Point: orb.Point{r.lon, ic.lat},
			})
		}
	}
	return points
}

func routeLines() []domain.RouteLine {
	var lines []domain.RouteLine
	for _, r := range routes {
		line := make(orb.LineString, 0, len(r.ics))
		for _, ic := range r.ics {
			line = append(line, orb.Point{r.lon, ic.lat})
		}
		lines = append(lines, domain.RouteLine{RouteName: r.official, Line: line})
	}
	return lines
}

func writeIncidentCSV(path string, records []domain.IncidentRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	// Two title rows above the header, matching the real export layout.
	rows := [][]string{
		{"高速道路における動物の死骸排除記録（模擬データ）"},
		{"集計期間: 2019年度"},
		{"道路名", "正式名称", "区間", "上下", "月", "時", "曜", "排除時天候", "小分類", "区間長_km"},
	}
	for _, rec := range records {
		rows = append(rows, []string{
			rec.RouteName,
			rec.OfficialName,
			rec.Section,
			rec.Direction,
			fmt.Sprintf("%d", rec.Month),
			fmt.Sprintf("%d", rec.Hour),
			rec.Weekday,
			rec.Weather,
			rec.Species,
			fmt.Sprintf("%.1f", rec.LengthKm),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeInterchanges(path string) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range routes {
		for _, ic := range r.ics {
			f := geojson.NewFeature(geojson.NewPointGeometry([]float64{r.lon, ic.lat}))
			f.SetProperty("N06_018", ic.name)
			f.SetProperty("N06_007", r.official)
			fc.AddFeature(f)
		}
	}
	return writeGeoJSON(path, fc)
}

func writeRoutes(path string) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range routes {
		coords := make([][]float64, 0, len(r.ics))
		for _, ic := range r.ics {
			coords = append(coords, []float64{r.lon, ic.lat})
		}
		f := geojson.NewFeature(geojson.NewLineStringGeometry(coords))
		f.SetProperty("N06_007", r.official)
		fc.AddFeature(f)
	}
	return writeGeoJSON(path, fc)
}

func writeSegments(path string) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range routes {
		for i := 0; i+1 < len(r.ics); i++ {
			a, b := r.ics[i], r.ics[i+1]
			f := geojson.NewFeature(geojson.NewLineStringGeometry([][]float64{
				{r.lon, a.lat},
				{r.lon, b.lat},
			}))
			f.SetProperty("N06_007", r.official)
			f.SetProperty("start_IC", a.name)
			f.SetProperty("end_IC", b.name)
			fc.AddFeature(f)
		}
	}
	return writeGeoJSON(path, fc)
}

func writeGeoJSON(path string, fc *geojson.FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

package geojsonfile

import "github.com/wildpath/roadkill-map/internal/domain"

// ReferenceSource binds a Loader to the configured interchange and route
// file paths.
type ReferenceSource struct {
	loader          *Loader
	interchangePath string
	routePath       string
}

func NewReferenceSource(loader *Loader, interchangePath, routePath string) *ReferenceSource {
	return &ReferenceSource{
		loader:          loader,
		interchangePath: interchangePath,
		routePath:       routePath,
	}
}

func (s *ReferenceSource) Interchanges() ([]domain.InterchangePoint, error) {
	return s.loader.LoadInterchanges(s.interchangePath)
}

func (s *ReferenceSource) RouteLines() ([]domain.RouteLine, error) {
	return s.loader.LoadRouteLines(s.routePath)
}

// SegmentSource binds a Loader to the configured pre-cut segment file path.
type SegmentSource struct {
	loader *Loader
	path   string
}

func NewSegmentSource(loader *Loader, path string) *SegmentSource {
	return &SegmentSource{loader: loader, path: path}
}

func (s *SegmentSource) CutSegments() ([]domain.CutSegment, error) {
	return s.loader.LoadCutSegments(s.path)
}

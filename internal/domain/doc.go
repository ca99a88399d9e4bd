// Package domain implements the entity-resolution core that links roadkill
// incident reports to physical expressway segments.
//
// # Data Sources
//
// Incident reports come from expressway patrol obstacle logs (路上障害物
// records), one row per removed animal carcass. Each row names the route and
// the section in free text, plus the removal conditions (month, hour, weekday,
// weather) and the species. The geometric references are the MLIT National
// Land Numerical Information N06 datasets: interchange points (name column
// N06_018) and highway section centerlines (route column N06_007), or a
// pre-cut variant where centerlines have already been split into IC-to-IC
// segments carrying start_IC/end_IC attributes.
//
// # Naming Conventions
//
// The three sources are maintained independently and spell the same entity
// differently:
//
//	Width:    "水戸ＩＣ" vs "水戸IC": full-width ASCII folded to half-width.
//	Suffixes: ＩＣ/IC, ＪＣＴ/JCT, ＳＩＣ/SIC, ＳＡ/SA, ＰＡ/PA, ＴＢ/TB are
//	          facility designators, stripped wherever they appear.
//	Routes:   a single trailing 道 is stripped, so the common abbreviation
//	          "常磐道" and the official "常磐自動車道" normalize to "常磐" and
//	          "常磐自動車", related by substring containment, not equality.
//
// Section labels use the wave dash: "水戸IC〜那珂IC" means the stretch between
// those two interchanges. Direction is not consistent between sources, so
// pre-cut segment lookup tries both orderings.
//
// # Resolution
//
// A section resolves in stages: route containment match against the sorted
// reference keys (first match wins, ambiguity reported via [RouteMatch]),
// interchange candidate lookup by exact normalized name, a plausibility
// filter keeping candidates within 3000 m of the matched route (degree
// distance × 111000 m/degree, an approximation), and nearest-pair selection
// by great-circle distance over the surviving cross product. A pair at zero
// distance is invalid and never selected. Failures drop the section from the
// map without aborting the batch.
//
// # Density
//
// Incidents group by normalized (route, section) key. density = count /
// section length (km) when the length is positive, otherwise 0. Zero-length
// segments keep their counts but never color the map.
package domain

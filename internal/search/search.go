// Package search answers "which resorts are near me" over an in-memory snapshot.
package search

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/i474232898/skimeister/internal/resort"
)

// EarthRadiusKm is the mean earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0088

// missingPrice sorts resorts without an adult day pass after every priced one.
var missingPrice = math.Inf(1)

// SortKey names a result ordering.
type SortKey string

const (
	SortDistance SortKey = "distance"
	SortName     SortKey = "name"
	SortPrice    SortKey = "price"
	SortSnow     SortKey = "snow"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Filters are optional constraints combined with AND. Nil fields do not constrain.
type Filters struct {
	MinSnow   *int           `json:"min_snow,omitempty"`
	Status    *resort.Status `json:"status,omitempty"`
	MinSlopes *float64       `json:"min_slopes,omitempty"`
	MaxPrice  *float64       `json:"max_price,omitempty"`
	Country   *string        `json:"country,omitempty"`
}

// Query is one proximity search.
type Query struct {
	Origin   Point
	RadiusKm *float64
	Filters  Filters
	Sort     SortKey
}

// Item is a resort annotated with its distance from the query origin.
type Item struct {
	resort.Resort
	DistanceKm float64 `json:"distance_km"`
}

// Result is the answer to a Query.
type Result struct {
	Origin   Point   `json:"user_location"`
	RadiusKm float64 `json:"radius_km"`
	Count    int     `json:"count"`
	Items    []Item  `json:"resorts"`
}

// RadiusBounds clamps requested radii.
type RadiusBounds struct {
	Min     float64 `validate:"gt=0"`
	Max     float64 `validate:"gtefield=Min"`
	Default float64 `validate:"gtefield=Min,ltefield=Max"`
}

// DefaultBounds are the production radius settings.
func DefaultBounds() RadiusBounds {
	return RadiusBounds{Min: 10, Max: 500, Default: 200}
}

// Engine runs searches. It is stateless apart from its bounds and safe for concurrent use.
type Engine struct {
	bounds RadiusBounds
}

// NewEngine returns an Engine using bounds.
func NewEngine(bounds RadiusBounds) *Engine {
	return &Engine{bounds: bounds}
}

// Bounds returns the radius bounds.
func (e *Engine) Bounds() RadiusBounds {
	return e.bounds
}

// EffectiveRadius returns the default radius for nil, otherwise the request clamped to the bounds.
func (e *Engine) EffectiveRadius(requested *float64) float64 {
	if requested == nil || math.IsNaN(*requested) {
		return e.bounds.Default
	}
	return max(e.bounds.Min, min(*requested, e.bounds.Max))
}

// Search filters the snapshot, keeps resorts within the effective radius of
// the origin and orders them by q.Sort. The snapshot is not modified.
func (e *Engine) Search(snapshot []resort.Resort, q Query) Result {
	radius := e.EffectiveRadius(q.RadiusKm)

	items := make([]Item, 0)
	for _, r := range Filter(snapshot, q.Filters) {
		lat, lon, ok := r.Coordinates()
		if !ok {
			continue
		}
		d := Distance(q.Origin, Point{Lat: lat, Lng: lon})
		if d > radius {
			continue
		}
		items = append(items, Item{Resort: r, DistanceKm: d})
	}

	sortItems(items, q.Sort)

	return Result{
		Origin:   q.Origin,
		RadiusKm: radius,
		Count:    len(items),
		Items:    items,
	}
}

// Filter returns the resorts satisfying every present constraint, in input order.
func Filter(snapshot []resort.Resort, f Filters) []resort.Resort {
	out := make([]resort.Resort, 0, len(snapshot))
	for _, r := range snapshot {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f Filters) matches(r resort.Resort) bool {
	c := r.Conditions
	if f.MinSnow != nil {
		if c == nil || c.SnowDepthMountain == nil || *c.SnowDepthMountain < *f.MinSnow {
			return false
		}
	}
	if f.Status != nil {
		if c == nil || c.Status == nil || *c.Status != *f.Status {
			return false
		}
	}
	if f.MinSlopes != nil {
		if c == nil || c.SlopesOpenKm == nil || *c.SlopesOpenKm < *f.MinSlopes {
			return false
		}
	}
	if f.MaxPrice != nil {
		p := r.Pricing
		if p == nil || p.AdultDayPass == nil || *p.AdultDayPass > *f.MaxPrice {
			return false
		}
	}
	if f.Country != nil && r.Country != *f.Country {
		return false
	}
	return true
}

// Distance returns the haversine distance between a and b in km, rounded to one decimal.
func Distance(a, b Point) float64 {
	const rad = math.Pi / 180
	lat1, lat2 := a.Lat*rad, b.Lat*rad
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	h = min(1, max(0, h))
	d := 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
	return math.Round(d*10) / 10
}

func sortItems(items []Item, key SortKey) {
	var less func(a, b Item) int
	switch key {
	case SortDistance, "":
		less = func(a, b Item) int { return cmp.Compare(a.DistanceKm, b.DistanceKm) }
	case SortName:
		less = func(a, b Item) int { return strings.Compare(a.Name, b.Name) }
	case SortPrice:
		less = func(a, b Item) int { return cmp.Compare(adultPrice(a.Resort), adultPrice(b.Resort)) }
	case SortSnow:
		less = func(a, b Item) int { return cmp.Compare(mountainSnow(b.Resort), mountainSnow(a.Resort)) }
	default:
		return
	}
	slices.SortStableFunc(items, less)
}

func adultPrice(r resort.Resort) float64 {
	if r.Pricing == nil || r.Pricing.AdultDayPass == nil {
		return missingPrice
	}
	return *r.Pricing.AdultDayPass
}

func mountainSnow(r resort.Resort) int {
	if r.Conditions == nil || r.Conditions.SnowDepthMountain == nil {
		return 0
	}
	return *r.Conditions.SnowDepthMountain
}

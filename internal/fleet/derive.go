package fleet

import (
	"bytes"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/velivert/velivert/internal/location"
	"github.com/velivert/velivert/internal/models"
	"github.com/velivert/velivert/internal/names"
)

// SortMode selects the bike ordering. Exactly one is active at a time.
type SortMode string

const (
	SortAvailability SortMode = "availability"
	SortDistance     SortMode = "distance"
	SortName         SortMode = "name"
)

// ParseSortMode parses a sort mode, defaulting to availability for ""
func ParseSortMode(s string) (SortMode, bool) {
	switch SortMode(strings.ToLower(s)) {
	case "", SortAvailability:
		return SortAvailability, true
	case SortDistance:
		return SortDistance, true
	case SortName:
		return SortName, true
	}
	return "", false
}

// Resolver maps a bike id to its display label
type Resolver interface {
	Resolve(bikeID string) string
}

func resolveWith(r Resolver) func(string) string {
	if r == nil {
		return func(id string) string { return names.Resolve(id, nil) }
	}
	return r.Resolve
}

// Filter narrows a bike list. The zero Filter matches everything.
type Filter struct {
	// Query is matched case-insensitively against the label or raw id
	Query string
	// StationID, when set, keeps only bikes docked at that station
	StationID string
	// DisabledOnly keeps only disabled bikes
	DisabledOnly bool
}

// Matches reports whether a bike passes the filter
func (f Filter) Matches(bike models.Bike, r Resolver) bool {
	if f.StationID != "" && bike.StationID != f.StationID {
		return false
	}
	if f.DisabledOnly && !bike.IsDisabled {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	if strings.Contains(strings.ToLower(resolveWith(r)(bike.ID)), q) {
		return true
	}
	return strings.Contains(strings.ToLower(bike.ID), q)
}

// FilterBikes keeps the bikes matching f, preserving order
func FilterBikes(bikes []models.BikeWithDistance, f Filter, r Resolver) []models.BikeWithDistance {
	out := make([]models.BikeWithDistance, 0, len(bikes))
	for _, b := range bikes {
		if f.Matches(b.Bike, r) {
			out = append(out, b)
		}
	}
	return out
}

// SortBikes returns a stably sorted copy of bikes.
// Name ordering uses the collation rules of lang.
func SortBikes(bikes []models.BikeWithDistance, mode SortMode, r Resolver, lang language.Tag) []models.BikeWithDistance {
	out := slices.Clone(bikes)

	switch mode {
	case SortDistance:
		slices.SortStableFunc(out, compareDistance)
	case SortName:
		sortByName(out, resolveWith(r), lang)
	default:
		slices.SortStableFunc(out, func(a, b models.BikeWithDistance) int {
			return int(a.Availability()) - int(b.Availability())
		})
	}

	return out
}

// compareDistance orders known distances ascending, unknown ones last
func compareDistance(a, b models.BikeWithDistance) int {
	switch {
	case a.DistanceMeters == nil && b.DistanceMeters == nil:
		return 0
	case a.DistanceMeters == nil:
		return 1
	case b.DistanceMeters == nil:
		return -1
	case *a.DistanceMeters < *b.DistanceMeters:
		return -1
	case *a.DistanceMeters > *b.DistanceMeters:
		return 1
	}
	return 0
}

func sortByName(bikes []models.BikeWithDistance, resolve func(string) string, lang language.Tag) {
	type keyed struct {
		key  []byte
		bike models.BikeWithDistance
	}

	// collate.Collator is not safe for concurrent use
	col := collate.New(lang)
	buf := &collate.Buffer{}

	items := make([]keyed, len(bikes))
	for i, b := range bikes {
		items[i] = keyed{key: col.KeyFromString(buf, resolve(b.ID)), bike: b}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return bytes.Compare(a.key, b.key)
	})

	for i := range items {
		bikes[i] = items[i].bike
	}
}

// QueryOptions drives Query
type QueryOptions struct {
	User     *models.Coord
	Area     location.Area
	Sort     SortMode
	Filter   Filter
	Language language.Tag
}

// Query annotates distances, sorts, then filters. Filtering after sorting
// keeps the sorted order and only drops non-matching bikes.
func Query(bikes []models.Bike, opts QueryOptions, r Resolver) []models.BikeWithDistance {
	annotated := location.AnnotateDistances(bikes, opts.User, opts.Area)
	sorted := SortBikes(annotated, opts.Sort, r, opts.Language)
	return FilterBikes(sorted, opts.Filter, r)
}

// BikeView is a bike prepared for display
type BikeView struct {
	models.BikeWithDistance
	Label       string `json:"label"`
	Status      string `json:"status"`
	StationName string `json:"station_name,omitempty"`
}

// Describe attaches labels, status and station names
func Describe(bikes []models.BikeWithDistance, r Resolver, idx StationIndex) []BikeView {
	resolve := resolveWith(r)
	views := make([]BikeView, len(bikes))
	for i, b := range bikes {
		views[i] = BikeView{
			BikeWithDistance: b,
			Label:            resolve(b.ID),
			Status:           b.Availability().String(),
			StationName:      idx.StationName(b.Bike),
		}
	}
	return views
}

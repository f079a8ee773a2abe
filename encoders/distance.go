package encoders

import (
	"taxifare/geo"
	"taxifare/models"
)

// DistanceTransformer computes the haversine distance in km between two
// coordinate pairs of each row.
type DistanceTransformer struct {
	StartLat string `json:"start_lat"`
	StartLon string `json:"start_lon"`
	EndLat   string `json:"end_lat"`
	EndLon   string `json:"end_lon"`
}

// NewDistanceTransformer returns a transformer over the pickup and dropoff columns.
func NewDistanceTransformer() *DistanceTransformer {
	return &DistanceTransformer{
		StartLat: models.ColPickupLatitude,
		StartLon: models.ColPickupLongitude,
		EndLat:   models.ColDropoffLatitude,
		EndLon:   models.ColDropoffLongitude,
	}
}

func (d *DistanceTransformer) Kind() string { return KindDistance }

func (d *DistanceTransformer) Fit(X models.Frame, y []float64) error { return nil }

// Transform emits a single distance column.
func (d *DistanceTransformer) Transform(X models.Frame) (*models.Table, error) {
	n := X.Len()
	dist := make([]float64, n)
	for i := 0; i < n; i++ {
		start, err := point(X, i, d.StartLat, d.StartLon)
		if err != nil {
			return nil, err
		}
		end, err := point(X, i, d.EndLat, d.EndLon)
		if err != nil {
			return nil, err
		}
		dist[i] = geo.Haversine(start, end)
	}
	out := models.NewTable(n)
	out.Set("distance", dist)
	return out, nil
}

// DistanceToCenter computes the haversine distance from the NYC reference
// point to the pickup and to the dropoff of each row.
type DistanceToCenter struct{}

func NewDistanceToCenter() *DistanceToCenter { return &DistanceToCenter{} }

func (d *DistanceToCenter) Kind() string { return KindDistanceToCenter }

func (d *DistanceToCenter) Fit(X models.Frame, y []float64) error { return nil }

func (d *DistanceToCenter) Transform(X models.Frame) (*models.Table, error) {
	n := X.Len()
	pickup := make([]float64, n)
	dropoff := make([]float64, n)
	for i := 0; i < n; i++ {
		p, err := point(X, i, models.ColPickupLatitude, models.ColPickupLongitude)
		if err != nil {
			return nil, err
		}
		q, err := point(X, i, models.ColDropoffLatitude, models.ColDropoffLongitude)
		if err != nil {
			return nil, err
		}
		pickup[i] = geo.Haversine(geo.NYCCenter, p)
		dropoff[i] = geo.Haversine(geo.NYCCenter, q)
	}
	out := models.NewTable(n)
	out.Set("pickup_distance_to_center", pickup)
	out.Set("dropoff_distance_to_center", dropoff)
	return out, nil
}

func point(X models.Frame, row int, latCol, lonCol string) (geo.Point, error) {
	lat, err := X.Float(latCol, row)
	if err != nil {
		return geo.Point{}, err
	}
	lon, err := X.Float(lonCol, row)
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}

package model

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// GeoPoint is an optional latitude/longitude pair. The zero value means
// "no location"; (0,0) with Valid set is a real coordinate.
type GeoPoint struct {
	Lat   float64
	Lng   float64
	Valid bool
}

// NewGeoPoint returns a present location.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Lat: lat, Lng: lng, Valid: true}
}

// String formats the point as "lat,lng", or "" when absent.
func (g GeoPoint) String() string {
	if !g.Valid {
		return ""
	}
	return fmt.Sprintf("%.6f,%.6f", g.Lat, g.Lng)
}

// ParseGeoPoint reads "lat,lng". Blank input is an absent point.
func ParseGeoPoint(s string) (GeoPoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return GeoPoint{}, nil
	}
	latText, lngText, ok := strings.Cut(s, ",")
	if !ok {
		return GeoPoint{}, fmt.Errorf("location must be \"lat,lng\"")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return GeoPoint{}, fmt.Errorf("invalid latitude %q", latText)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngText), 64)
	if err != nil || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return GeoPoint{}, fmt.Errorf("invalid longitude %q", lngText)
	}
	return NewGeoPoint(lat, lng), nil
}

type geoJSON struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// MarshalJSON encodes an absent point as null.
func (g GeoPoint) MarshalJSON() ([]byte, error) {
	if !g.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(geoJSON{Lat: g.Lat, Lng: g.Lng})
}

// UnmarshalJSON accepts null or {"lat":..,"lng":..}.
func (g *GeoPoint) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = GeoPoint{}
		return nil
	}
	var v geoJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*g = NewGeoPoint(v.Lat, v.Lng)
	return nil
}

// MarshalYAML encodes an absent point as null.
func (g GeoPoint) MarshalYAML() (interface{}, error) {
	if !g.Valid {
		return nil, nil
	}
	return geoJSON{Lat: g.Lat, Lng: g.Lng}, nil
}

// Client is a customer the user does work for.
type Client struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	Phone     string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address   string    `json:"address,omitempty" yaml:"address,omitempty"`
	Location  GeoPoint  `json:"location" yaml:"location"`
	LogoURL   string    `json:"logo_url,omitempty" yaml:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// MapURL returns a geo: URI pointing at the client's location. It reports
// false when the client has no location, so callers never render (0,0)
// for an unset point.
func (c Client) MapURL() (string, bool) {
	if !c.Location.Valid {
		return "", false
	}
	label := url.QueryEscape(c.Name)
	return fmt.Sprintf("geo:0,0?q=%s(%s)", c.Location.String(), label), true
}

// FormattedPhone groups an international number for display, e.g.
// "+34600111222" becomes "+34 600 111 222". Other shapes are returned as-is.
func (c Client) FormattedPhone() string {
	p := strings.TrimSpace(c.Phone)
	return phoneGroups.ReplaceAllString(p, "$1 $2 $3 $4")
}

var phoneGroups = regexp.MustCompile(`^(\+\d{1,3})(\d{3})(\d{3})(\d{3})$`)

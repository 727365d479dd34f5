package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ResolvedLocation is the place a forecast is requested for.
type ResolvedLocation struct {
	Name             string
	Lat              float64
	Lon              float64
	FormattedAddress string
	GeoSource        string // "forward", "reverse", "original", "failed"
}

// Label is the most specific human-readable name available.
func (l ResolvedLocation) Label() string {
	if l.FormattedAddress != "" {
		return l.FormattedAddress
	}
	return l.Name
}

// ResolveLocation turns the caller's location hints into a place name.
// A typed name is canonicalized with a forward lookup when a geocoder is
// available and kept as typed if the lookup fails. Bare coordinates need a
// reverse lookup; without a geocoder, or when it fails, the result is
// ErrLocationUnresolved.
func ResolveLocation(ctx context.Context, name string, lat, lon *float64, geocoder Geocoder, logger *slog.Logger) (ResolvedLocation, error) {
	name = strings.TrimSpace(name)

	if name != "" {
		loc := ResolvedLocation{Name: name, GeoSource: "original"}
		if geocoder == nil {
			return loc, nil
		}
		result, err := geocoder.ForwardGeocode(ctx, name, "")
		if err != nil {
			logger.Warn("forward geocoding failed", "location", name, "error", err)
			loc.GeoSource = "failed"
			return loc, nil
		}
		if result.FormattedAddress == "" {
			return loc, nil
		}
		loc.Lat = result.Lat
		loc.Lon = result.Lon
		loc.FormattedAddress = result.FormattedAddress
		if result.PlaceName != "" {
			loc.Name = result.PlaceName
		}
		loc.GeoSource = "forward"
		return loc, nil
	}

	if lat == nil || lon == nil {
		return ResolvedLocation{}, fmt.Errorf("no location or coordinates: %w", ErrLocationUnresolved)
	}
	if geocoder == nil {
		return ResolvedLocation{}, fmt.Errorf("geocoding disabled: %w", ErrLocationUnresolved)
	}

	result, err := geocoder.ReverseGeocode(ctx, *lat, *lon)
	if err != nil {
		logger.Warn("reverse geocoding failed", "lat", *lat, "lon", *lon, "error", err)
		return ResolvedLocation{}, fmt.Errorf("reverse geocode %.4f,%.4f: %w", *lat, *lon, ErrLocationUnresolved)
	}
	if result.PlaceName == "" && result.FormattedAddress == "" {
		return ResolvedLocation{}, fmt.Errorf("no place at %.4f,%.4f: %w", *lat, *lon, ErrLocationUnresolved)
	}
	return ResolvedLocation{
		Name:             result.PlaceName,
		Lat:              *lat,
		Lon:              *lon,
		FormattedAddress: result.FormattedAddress,
		GeoSource:        "reverse",
	}, nil
}

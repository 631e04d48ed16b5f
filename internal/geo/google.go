package geo

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"

	"googlemaps.github.io/maps"
)

const (
	DefaultRadius   = 1000
	DefaultLanguage = "en"
)

// Google talks to the Geolocation, Places and Directions APIs.
type Google struct {
	client   *maps.Client
	language string
}

func NewGoogle(apiKey string, httpClient *http.Client, opts ...maps.ClientOption) (*Google, error) {
	if apiKey == "" {
		return nil, errors.New("empty maps api key")
	}

	base := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if httpClient != nil {
		base = append(base, maps.WithHTTPClient(httpClient))
	}

	c, err := maps.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}

	return &Google{client: c, language: DefaultLanguage}, nil
}

// Locate returns the current position. Without radio data the service
// falls back to the caller's IP address.
func (g *Google) Locate(ctx context.Context) (LatLng, error) {
	res, err := g.client.Geolocate(ctx, &maps.GeolocationRequest{
		HomeMobileCountryCode: 310,
		HomeMobileNetworkCode: 410,
		RadioType:             maps.RadioTypeGSM,
		Carrier:               "Vodafone",
		ConsiderIP:            true,
	})
	if err != nil {
		return LatLng{}, fmt.Errorf("geolocate: %w", err)
	}

	log.Debug("Located", "lat", res.Location.Lat, "lng", res.Location.Lng, "accuracy", res.Accuracy)
	return LatLng{Lat: res.Location.Lat, Lng: res.Location.Lng}, nil
}

// Nearby lists up to max places of the given type around origin, in the
// order the service ranks them.
func (g *Google) Nearby(ctx context.Context, origin LatLng, radius uint, placeType string, max int) ([]Place, error) {
	if radius == 0 {
		radius = DefaultRadius
	}

	req := &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: origin.Lat, Lng: origin.Lng},
		Radius:   radius,
		Language: g.language,
	}

	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(placeType)), " ", "_")
	if pt, err := maps.ParsePlaceType(normalized); err == nil {
		req.Type = pt
	} else {
		req.Keyword = placeType
	}

	resp, err := g.client.NearbySearch(ctx, req)
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return nil, fmt.Errorf("%s: %w", placeType, ErrNoPlaces)
		}
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	results := resp.Results
	if max > 0 && len(results) > max {
		results = results[:max]
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		log.Info("Place found", "name", r.Name, "vicinity", r.Vicinity)
		places = append(places, Place{
			Name:     r.Name,
			PlaceID:  r.PlaceID,
			Vicinity: r.Vicinity,
			Location: LatLng{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		})
	}

	if len(places) == 0 {
		return nil, fmt.Errorf("%s: %w", placeType, ErrNoPlaces)
	}
	return places, nil
}

// Directions returns driving routes from origin to destination.
func (g *Google) Directions(ctx context.Context, origin, destination LatLng) ([]Route, error) {
	routes, _, err := g.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      origin.String(),
		Destination: destination.String(),
		Mode:        maps.TravelModeDriving,
		Language:    g.language,
	})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return nil, ErrNoRoutes
		}
		return nil, fmt.Errorf("directions: %w", err)
	}

	out := make([]Route, 0, len(routes))
	for _, r := range routes {
		route := Route{Summary: r.Summary}
		for _, l := range r.Legs {
			if l == nil {
				continue
			}
			route.Legs = append(route.Legs, Leg{
				Duration:     l.Duration,
				DurationText: HumanDuration(l.Duration),
				DistanceText: l.Distance.HumanReadable,
			})
		}
		out = append(out, route)
	}

	if len(out) == 0 || len(out[0].Legs) == 0 {
		return nil, ErrNoRoutes
	}
	return out, nil
}

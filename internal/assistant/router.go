package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	"rita/internal/geo"
	"rita/internal/nlu"
	"rita/internal/profile"
)

const (
	MsgWelcome        = "Welcome %s, I've set up your profile. I'm ready to start. Where are we going today?"
	MsgStranger       = "I don't know you. You want create a new profile?."
	MsgNewProfile     = "Ops, for security purpose I can't setup a new profile. Turning off the car."
	MsgRouteReady     = "Okay, we're ready to go"
	MsgProfileInfo    = "Hey %s, you're setup are: Position %d, Tilt %d, and Height %d"
	MsgUnknownProfile = "I don't know you. Please use the FaceID to set up the profile."
	MsgNearest        = "The nearest %s is %s. It takes %s to get there."
)

// Seat applies a driver profile to the seat.
type Seat interface {
	Apply(ctx context.Context, p profile.Profile) error
}

// Language answers with the language model.
type Language interface {
	PlaceType(ctx context.Context, utterance, hint string) (string, error)
	Chat(ctx context.Context, utterance string) (string, error)
}

// Places finds the vehicle, nearby places and routes.
type Places interface {
	Locate(ctx context.Context) (geo.LatLng, error)
	Nearby(ctx context.Context, origin geo.LatLng, radius uint, placeType string, max int) ([]geo.Place, error)
	Directions(ctx context.Context, origin, destination geo.LatLng) ([]geo.Route, error)
}

type Reply struct {
	Action Action
	Text   string
}

type Router struct {
	store  *profile.Store
	seat   Seat
	lang   Language
	places Places
	radius uint
}

func NewRouter(store *profile.Store, seat Seat, lang Language, places Places, radius uint) *Router {
	if radius == 0 {
		radius = geo.DefaultRadius
	}
	return &Router{
		store:  store,
		seat:   seat,
		lang:   lang,
		places: places,
		radius: radius,
	}
}

// Route performs the action selected for the classification and returns the
// text to speak.
func (r *Router) Route(ctx context.Context, utterance string, c nlu.Classification) (Reply, error) {
	a := Resolve(c, r.store)
	log.Info("Routing", "action", a.Kind, "driver", a.Profile.Name, "query", a.Query)

	switch a.Kind {
	case KindStranger:
		log.Info("Driver not recognised", "names", r.unknownDrivers(c, nlu.CategoryWelcome))
	case KindUnknownProfile:
		log.Info("Profile not available", "names", r.unknownDrivers(c, nlu.CategoryProfile))
	}

	text, err := r.perform(ctx, utterance, a)
	if err != nil {
		return Reply{Action: a}, err
	}
	return Reply{Action: a, Text: text}, nil
}

func (r *Router) perform(ctx context.Context, utterance string, a Action) (string, error) {
	switch a.Kind {
	case KindWelcome:
		if err := r.seat.Apply(ctx, a.Profile); err != nil {
			return "", fmt.Errorf("seat setup for %s: %w", a.Profile.Name, err)
		}
		return fmt.Sprintf(MsgWelcome, a.Profile.Name), nil

	case KindStranger:
		return MsgStranger, nil

	case KindNewProfile:
		return MsgNewProfile, nil

	case KindRoute:
		return MsgRouteReady, nil

	case KindProfileInfo:
		p := a.Profile
		return fmt.Sprintf(MsgProfileInfo, p.Name, p.Position, p.Tilt, p.Height), nil

	case KindUnknownProfile:
		return MsgUnknownProfile, nil

	case KindServiceLocation:
		return r.nearest(ctx, utterance, a.Query)

	default:
		return r.lang.Chat(ctx, utterance)
	}
}

func (r *Router) nearest(ctx context.Context, utterance, query string) (string, error) {
	log.Info("Searching for location nearby")

	placeType, err := r.lang.PlaceType(ctx, utterance, query)
	if err != nil {
		return "", fmt.Errorf("place type: %w", err)
	}

	pos, err := r.places.Locate(ctx)
	if err != nil {
		return "", err
	}

	places, err := r.places.Nearby(ctx, pos, r.radius, placeType, 1)
	if err != nil {
		return "", err
	}
	if len(places) == 0 {
		return "", fmt.Errorf("%s: %w", placeType, geo.ErrNoPlaces)
	}
	top := places[0]

	routes, err := r.places.Directions(ctx, pos, top.Location)
	if err != nil {
		return "", err
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return "", fmt.Errorf("to %s: %w", top.Name, geo.ErrNoRoutes)
	}

	return fmt.Sprintf(MsgNearest, placeType, top.Name, routes[0].Legs[0].DurationText), nil
}

// unknownDrivers lists the names the classifier produced for cat that are not
// in the store.
func (r *Router) unknownDrivers(c nlu.Classification, cat nlu.Category) []string {
	var out []string
	for _, name := range c.NamesOf(cat) {
		if _, err := r.store.Lookup(name); errors.Is(err, profile.ErrUnknownProfile) {
			out = append(out, name)
		}
	}
	return out
}

// Recoverable reports whether a failed utterance should be dropped while the
// assistant keeps listening.
func Recoverable(err error) bool {
	return errors.Is(err, ErrBadInput) ||
		errors.Is(err, nlu.ErrMalformedIntent) ||
		errors.Is(err, geo.ErrNoPlaces) ||
		errors.Is(err, geo.ErrNoRoutes)
}

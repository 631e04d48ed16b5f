package assistant

import (
	"rita/internal/nlu"
	"rita/internal/profile"
)

type Kind string

const (
	KindWelcome         Kind = "welcome"
	KindStranger        Kind = "stranger"
	KindNewProfile      Kind = "new_profile"
	KindRoute           Kind = "route"
	KindProfileInfo     Kind = "profile_info"
	KindUnknownProfile  Kind = "unknown_profile"
	KindServiceLocation Kind = "service_location"
	KindChat            Kind = "chat"
)

// Action is the single thing the assistant does for an utterance.
// Profile is set for KindWelcome and KindProfileInfo, Query for
// KindServiceLocation.
type Action struct {
	Kind    Kind
	Profile profile.Profile
	Query   string
}

// Resolve picks the action for a classification. Categories are checked in
// fixed priority order and the first match wins; lower-priority categories
// that are also set are ignored.
func Resolve(c nlu.Classification, store *profile.Store) Action {
	if c.Has(nlu.CategoryWelcome) {
		for _, p := range store.All() {
			if v, ok := c.Named(nlu.CategoryWelcome, p.Name); ok && v.Truthy() {
				return Action{Kind: KindWelcome, Profile: p}
			}
		}
		return Action{Kind: KindStranger}
	}

	if c.Truthy(nlu.CategoryNewProfile) {
		return Action{Kind: KindNewProfile}
	}

	if c.Truthy(nlu.CategoryRoute) {
		return Action{Kind: KindRoute}
	}

	if c.Has(nlu.CategoryProfile) {
		// Only the primary (first) driver can query their stored setup.
		all := store.All()
		if len(all) == 0 {
			return Action{Kind: KindUnknownProfile}
		}
		primary := all[0]
		if v, ok := c.Named(nlu.CategoryProfile, primary.Name); ok && v.Truthy() {
			return Action{Kind: KindProfileInfo, Profile: primary}
		}
		return Action{Kind: KindUnknownProfile}
	}

	if v, ok := c.Value(nlu.CategoryServiceLocation); ok && v.Truthy() {
		query := v.Text
		if v.Flag {
			query = ""
		}
		return Action{Kind: KindServiceLocation, Query: query}
	}

	return Action{Kind: KindChat}
}

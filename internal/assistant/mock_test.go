package assistant

import (
	"context"
	"errors"

	"rita/internal/geo"
	"rita/internal/hmi"
	"rita/internal/nlu"
	"rita/internal/profile"
)

// mockSeat records every applied profile
type mockSeat struct {
	applied []profile.Profile
	err     error
}

func (m *mockSeat) Apply(_ context.Context, p profile.Profile) error {
	if m.err != nil {
		return m.err
	}
	m.applied = append(m.applied, p)
	return nil
}

type mockLanguage struct {
	placeType  string
	chatReply  string
	chatInputs []string
	hints      []string
}

func (m *mockLanguage) PlaceType(_ context.Context, _, hint string) (string, error) {
	m.hints = append(m.hints, hint)
	if m.placeType == "" {
		return "", errors.New("no place type")
	}
	return m.placeType, nil
}

func (m *mockLanguage) Chat(_ context.Context, utterance string) (string, error) {
	m.chatInputs = append(m.chatInputs, utterance)
	return m.chatReply, nil
}

type mockPlaces struct {
	pos    geo.LatLng
	places []geo.Place
	routes []geo.Route

	nearbyType string
	radius     uint
	dest       geo.LatLng
}

func (m *mockPlaces) Locate(context.Context) (geo.LatLng, error) { return m.pos, nil }

func (m *mockPlaces) Nearby(_ context.Context, _ geo.LatLng, radius uint, placeType string, _ int) ([]geo.Place, error) {
	m.nearbyType = placeType
	m.radius = radius
	return m.places, nil
}

func (m *mockPlaces) Directions(_ context.Context, _, dest geo.LatLng) ([]geo.Route, error) {
	m.dest = dest
	return m.routes, nil
}

type mockRecorder struct {
	paths []string
	err   error
}

func (m *mockRecorder) Record(_ context.Context, path string) error {
	m.paths = append(m.paths, path)
	return m.err
}

type mockTranscriber struct {
	text  string
	err   error
	paths []string
}

func (m *mockTranscriber) TranscribeFile(_ context.Context, path string) (string, error) {
	m.paths = append(m.paths, path)
	return m.text, m.err
}

// mockClassifier parses a canned classifier answer
type mockClassifier struct {
	raw    string
	err    error
	inputs []string
}

func (m *mockClassifier) Classify(_ context.Context, utterance string) (nlu.Classification, error) {
	m.inputs = append(m.inputs, utterance)
	if m.err != nil {
		return nlu.Classification{}, m.err
	}
	return nlu.ParseClassification(m.raw)
}

type mockSpeaker struct {
	said []string
	err  error
}

func (m *mockSpeaker) Speak(_ context.Context, text string) error {
	m.said = append(m.said, text)
	return m.err
}

// mockDucker records the call order
type mockDucker struct {
	calls []string
}

func (m *mockDucker) Duck(context.Context) error {
	m.calls = append(m.calls, "duck")
	return nil
}

func (m *mockDucker) Restore(context.Context) error {
	m.calls = append(m.calls, "restore")
	return nil
}

type mockChime struct {
	played int
	err    error
}

func (m *mockChime) Play(context.Context) error {
	m.played++
	return m.err
}

type mockHMI struct {
	sent []hmi.Message
}

func (m *mockHMI) Publish(_ context.Context, msg hmi.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

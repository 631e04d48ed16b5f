package vss

import (
	"encoding/json"
	"fmt"
)

const (
	ActionAuthorize = "authorize"
	ActionSet       = "set"
	ActionGet       = "get"
)

const (
	AttrValue       = "value"
	AttrTargetValue = "targetValue"
)

// Request is a KUKSA.val WebSocket request frame.
type Request struct {
	Action    string `json:"action"`
	Path      string `json:"path,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Value     any    `json:"value,omitempty"`
	Tokens    string `json:"tokens,omitempty"`
	RequestID string `json:"requestId"`
}

type Datapoint struct {
	Value any    `json:"value"`
	TS    string `json:"ts,omitempty"`
}

type Data struct {
	Path string    `json:"path"`
	DP   Datapoint `json:"dp"`
}

// Response is a reply frame. Error is set when the server rejected the request.
type Response struct {
	Action    string `json:"action"`
	RequestID string `json:"requestId"`
	Data      *Data  `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	TS        string `json:"ts,omitempty"`
}

type Error struct {
	Number  any    `json:"number"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("vss error %v (%s): %s", e.Number, e.Reason, e.Message)
}

func ParseResponse(raw []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.RequestID == "" {
		return nil, fmt.Errorf("response without requestId: %s", raw)
	}
	return &resp, nil
}

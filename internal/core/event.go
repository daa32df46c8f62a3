package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode"
)

var ErrInvalidEventName = errors.New("invalid event name")

type Kind string

const (
	KindSourceReady         Kind = "source-ready"
	KindTransformComplete   Kind = "transform-complete"
	KindQuotaExceeded       Kind = "quota-exceeded"
	KindPostProcessComplete Kind = "post-process-complete"
	KindPeerRelay           Kind = "peer-relay"
)

// Push message names seen by the browser.
const (
	EventSourceReady   = "webhookEvent1"
	EventTransformDone = "webhookEvent2"
	EventPostProcess   = "webhookEvent3"
)

const (
	MessageDone          = "done"
	MessageQuotaExceeded = "Quota exceeded"
)

// Event is created once by the ingest side or by a peer and never mutated.
type Event struct {
	Kind Kind            `json:"-"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

func newEvent(kind Kind, name string, fields map[string]string) *Event {
	data, _ := json.Marshal(fields)

	return &Event{Kind: kind, Name: name, Data: data}
}

func SourceReady(orgURL string) *Event {
	return newEvent(KindSourceReady, EventSourceReady, map[string]string{
		"message": MessageDone,
		"orgUrl":  orgURL,
	})
}

func TransformComplete(downloadLink string) *Event {
	return newEvent(KindTransformComplete, EventTransformDone, map[string]string{
		"message":      MessageDone,
		"downloadLink": downloadLink,
	})
}

func QuotaExceeded(details string) *Event {
	return newEvent(KindQuotaExceeded, EventTransformDone, map[string]string{
		"message": MessageQuotaExceeded,
		"details": details,
	})
}

func PostProcessComplete(captionedURL string) *Event {
	return newEvent(KindPostProcessComplete, EventPostProcess, map[string]string{
		"message":           MessageDone,
		"captionedVideoUrl": captionedURL,
	})
}

// PeerRelay wraps a client-emitted message so it can be rebroadcast as is.
func PeerRelay(name string, data json.RawMessage) *Event {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}

	return &Event{Kind: KindPeerRelay, Name: name, Data: data}
}

// Fields decodes the flat string mapping of a classified event. Peer events
// with non-string data return an error.
func (e *Event) Fields() (map[string]string, error) {
	var fields map[string]string
	if err := json.Unmarshal(e.Data, &fields); err != nil {
		return nil, err
	}

	return fields, nil
}

// ClientMessage is a named message emitted by the remote end of a session.
type ClientMessage struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// CheckEventName refuses names that cannot be written as a single frame
// header line: empty names and names holding control characters.
func CheckEventName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidEventName)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character %q", ErrInvalidEventName, r)
		}
	}

	return nil
}

package core

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// PayloadError rejects a webhook body. Its message is sent back to the
// provider as is.
type PayloadError struct {
	Reason string
}

func (e *PayloadError) Error() string {
	return e.Reason
}

func rejectf(format string, args ...any) error {
	return &PayloadError{Reason: fmt.Sprintf(format, args...)}
}

// Classification is the outcome of a well formed webhook body.
type Classification struct {
	Event *Event
	Ack   string
}

// Classifier turns a decoded JSON object into exactly one event or a
// PayloadError.
type Classifier func(body map[string]any) (*Classification, error)

type secureURLPayload struct {
	SecureURL string `mapstructure:"secure_url"`
}

type transformPayload struct {
	Payload *struct {
		VideoURL string `mapstructure:"video_url"`
		Message  string `mapstructure:"message"`
	} `mapstructure:"payload"`
}

func decode(body map[string]any, out any) error {
	if err := mapstructure.Decode(body, out); err != nil {
		return rejectf("invalid payload: %s", firstDecodeError(err))
	}

	return nil
}

func firstDecodeError(err error) string {
	if merr, ok := err.(*mapstructure.Error); ok && len(merr.Errors) > 0 {
		return merr.Errors[0]
	}

	return err.Error()
}

func ClassifySourceReady(body map[string]any) (*Classification, error) {
	var data secureURLPayload
	if err := decode(body, &data); err != nil {
		return nil, err
	}

	if data.SecureURL == "" {
		return nil, rejectf("secure_url missing")
	}

	return &Classification{Event: SourceReady(data.SecureURL), Ack: "Webhook received"}, nil
}

func ClassifyTransform(body map[string]any) (*Classification, error) {
	var data transformPayload
	if err := decode(body, &data); err != nil {
		return nil, err
	}

	if data.Payload == nil {
		return nil, rejectf("payload missing")
	}

	switch {
	case data.Payload.VideoURL != "":
		return &Classification{
			Event: TransformComplete(data.Payload.VideoURL),
			Ack:   "Webhook2 received",
		}, nil
	case data.Payload.Message != "":
		return &Classification{
			Event: QuotaExceeded(data.Payload.Message),
			Ack:   "Quota exceeded notification received",
		}, nil
	}

	return nil, rejectf("video_url or message missing")
}

func ClassifyPostProcess(body map[string]any) (*Classification, error) {
	var data secureURLPayload
	if err := decode(body, &data); err != nil {
		return nil, err
	}

	if data.SecureURL == "" {
		return nil, rejectf("secure_url missing")
	}

	return &Classification{Event: PostProcessComplete(data.SecureURL), Ack: "Webhook3 received"}, nil
}

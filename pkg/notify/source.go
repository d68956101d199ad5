package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nexusforge/console/pkg/common/models"
)

// ErrMalformedMessage marks a payload that is not a notification. The
// stream stays usable after it.
var ErrMalformedMessage = errors.New("malformed notification")

// Source opens a push transport.
type Source interface {
	Name() string
	Open(ctx context.Context) (Stream, error)
}

type Stream interface {
	// Receive blocks for the next notification. Any error other than
	// ErrMalformedMessage ends the stream.
	Receive(ctx context.Context) (models.Notification, error)
	Close() error
}

func decode(data []byte) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return models.Notification{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if n.Message == "" {
		return models.Notification{}, fmt.Errorf("%w: empty message", ErrMalformedMessage)
	}
	return n, nil
}

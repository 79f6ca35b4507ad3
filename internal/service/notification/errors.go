package notification

import "fmt"

// ErrChannelNotImplemented is returned when a channel is selected that has
// no working implementation yet.
type ErrChannelNotImplemented struct {
	Channel Channel
}

func (e *ErrChannelNotImplemented) Error() string {
	return fmt.Sprintf("notification channel %q is not implemented", e.Channel)
}

// ErrUnknownChannel is returned for channel names outside the known set.
type ErrUnknownChannel struct {
	Channel Channel
}

func (e *ErrUnknownChannel) Error() string {
	return fmt.Sprintf("unknown notification channel %q", e.Channel)
}

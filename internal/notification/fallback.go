package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ripple-mobile/ripple_mobile/internal/logging"
)

// Fallback sends through Primary and, when that fails, once through Secondary.
type Fallback struct {
	Primary   Notifier
	Secondary Notifier
	Logger    *slog.Logger
}

func (f Fallback) Send(ctx context.Context, message Message) error {
	err := f.Primary.Send(ctx, message)
	if err == nil || f.Secondary == nil {
		return err
	}
	if f.Logger != nil {
		f.Logger.Warn("primary notifier failed, using fallback",
			slog.String("kind", message.Kind), logging.Phone(message.Destination), slog.Any("error", err))
	}
	if ferr := f.Secondary.Send(ctx, message); ferr != nil {
		return errors.Join(err, ferr)
	}
	return nil
}

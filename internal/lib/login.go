package lib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ccfrost/zenwatch/internal/zenfolio"
)

var ErrLoginExhausted = errors.New("login attempts exhausted")

// loginWithBackoff logs in, retrying rejected or failed attempts per b.
func loginWithBackoff(ctx context.Context, client GalleryClient, login, password string, b Backoff, sleep sleepFunc) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		ok, err := client.Login(ctx, login, password)
		if ok && err == nil {
			if attempt > 1 {
				logger.Info("Logged in", slog.String("login", login), slog.Int("attempt", attempt))
			} else {
				logger.Debug("Logged in", slog.String("login", login))
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			lastErr = err
			logger.Error("Login failed",
				slog.String("login", login),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		} else {
			lastErr = zenfolio.ErrInvalidCredentials
			logger.Error("Login rejected",
				slog.String("login", login),
				slog.Int("attempt", attempt))
		}

		if b.Exhausted(attempt) {
			return fmt.Errorf("%w after %d attempts: %w", ErrLoginExhausted, attempt, lastErr)
		}
		if err := sleep(ctx, b.Delay(attempt)); err != nil {
			return err
		}
	}
}

// Login logs client in, retrying per b.
func Login(ctx context.Context, client GalleryClient, login, password string, b Backoff) error {
	return loginWithBackoff(ctx, client, login, password, b, sleepContext)
}

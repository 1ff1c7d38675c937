package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// handlerFunc executes one console command.
type handlerFunc func(ctx context.Context, fields []string) error

// middlewareFunc wraps a handlerFunc.
type middlewareFunc func(next handlerFunc) handlerFunc

// chain applies middleware so the first one listed runs outermost.
func chain(h handlerFunc, mw ...middlewareFunc) handlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// loggingMiddleware logs every command at debug level.
func loggingMiddleware() middlewareFunc {
	return func(next handlerFunc) handlerFunc {
		return func(ctx context.Context, fields []string) error {
			started := time.Now()
			err := next(ctx, fields)

			logEvent := log.Debug()
			if len(fields) > 1 {
				logEvent = logEvent.Str("user_id", fields[1])
			}
			logEvent.
				Str("text", strings.Join(fields, " ")).
				Dur("elapsed", time.Since(started)).
				AnErr("error", err).
				Msg("Handled command")
			return err
		}
	}
}

// recoveryMiddleware turns a panic in a command into an error.
func recoveryMiddleware() middlewareFunc {
	return func(next handlerFunc) handlerFunc {
		return func(ctx context.Context, fields []string) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Strs("fields", fields).
						Msg("Recovered from panic in command")
					err = errors.New("internal error")
				}
			}()
			return next(ctx, fields)
		}
	}
}

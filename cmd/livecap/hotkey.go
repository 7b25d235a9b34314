//go:build !nohotkey

package main

import (
	"context"

	"github.com/emmett/livecap/internal/app"
	"github.com/emmett/livecap/internal/input"
	"github.com/emmett/livecap/internal/session"
)

// golang.design/x/hotkey needs a display at init on Linux; build headless
// binaries with -tags nohotkey.
var hotkeyFunc app.HotkeyFunc = func(ctx context.Context, flag *session.Flag, hotkey string) error {
	return input.NewHotkeyManager(flag).Run(ctx, hotkey)
}

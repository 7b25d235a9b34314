//go:build nohotkey

package main

import "github.com/emmett/livecap/internal/app"

var hotkeyFunc app.HotkeyFunc

package tui

import (
	"log"
	"os"
	"strings"
)

const envDebugLog = "BASEHOOK_TUI_DEBUG_LOG"

// openDebugLog returns nil unless BASEHOOK_TUI_DEBUG_LOG names a writable file.
func openDebugLog() (*log.Logger, *os.File) {
	path := strings.TrimSpace(os.Getenv(envDebugLog))
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil
	}
	return log.New(f, "", log.LstdFlags|log.Lmicroseconds), f
}

func (m *appModel) debugLogf(format string, args ...any) {
	if m == nil || m.debugLog == nil {
		return
	}
	m.debugLog.Printf(format, args...)
}

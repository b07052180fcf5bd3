package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibelist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgValidationComplete
)

type validationResult struct {
	summary tasks.Summary
	err     error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// validationCompleteMsg is the constructor for [MsgValidationComplete]
func validationCompleteMsg(summary tasks.Summary, err error) Msg {
	return Msg{kind: MsgValidationComplete, data: validationResult{summary, err}}
}

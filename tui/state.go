package tui

type state int

const (
	resolveState state = iota
	sourcesState
	errorState
)

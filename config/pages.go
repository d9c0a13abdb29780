package config

// Page identifies a top-level TUI page
type Page int

const (
	PageStatus Page = iota
	PageDetails
	PageSettings
)

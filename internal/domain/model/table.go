package model

// Table is a single entry returned by schema introspection.
type Table struct {
	Name   string
	Schema string
}

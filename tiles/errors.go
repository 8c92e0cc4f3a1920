package tiles

import "fmt"

// TileFetchError reports a tile that could not be fetched after every retry.
type TileFetchError struct {
	Provider string
	Zoom     int
	X, Y     int
	Attempts int
	Err      error
}

func (e *TileFetchError) Error() string {
	return fmt.Sprintf("fetch tile %s %d/%d/%d failed after %d attempts: %v",
		e.Provider, e.Zoom, e.X, e.Y, e.Attempts, e.Err)
}

func (e *TileFetchError) Unwrap() error { return e.Err }

// UnknownProviderError is returned when a provider cannot be constructed.
type UnknownProviderError struct {
	Name   string
	Reason string
}

func (e *UnknownProviderError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unknown tile provider %q", e.Name)
	}
	return fmt.Sprintf("tile provider %q: %s", e.Name, e.Reason)
}

package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// APIError is a non-2xx reply decoded from the server's {"detail","fields"}
// body. 401 replies also match ErrUnauthorized.
type APIError struct {
	Status int
	Detail string
	Fields map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s (%d)", e.Detail, e.Status)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s (%d): %s", e.Detail, e.Status, strings.Join(parts, ", "))
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == 401
}

package handler // handler defines http handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-enrollment/internal/middleware"
)

// Purger drops cached course listings after a write changes seat counts.
type Purger interface {
	Purge(ctx context.Context) error
}

type noopPurger struct{}

func (noopPurger) Purge(context.Context) error { return nil }

// getUserID extracts the authenticated student id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	switch t := c.Get(middleware.CtxUserID).(type) {
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, nil
		}
	case float64:
		if t > 0 {
			return uint64(t), nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryID reads an optional positive numeric query parameter; absent
// means zero.
func queryID(c echo.Context, name string) (uint64, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	return id, err == nil && id > 0
}

// purge runs after a committed write; a failure only leaves listings stale
// until the cache TTL expires.
func purge(c echo.Context, p Purger) {
	if p == nil {
		return
	}
	if err := p.Purge(c.Request().Context()); err != nil {
		c.Logger().Warnf("cache purge failed: %v", err)
	}
}

package health

import "errors"

// ErrCheckFailed indicates a health check found an unhealthy condition.
var ErrCheckFailed = errors.New("health: check failed")

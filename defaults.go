package listcache

import "time"

const (
	DefaultStaleTime    = 5 * time.Minute
	DefaultRetryCount   = 3
	DefaultRetryDelay   = time.Second
	DefaultItemsPerPage = 25
	DefaultNamespace    = "default"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

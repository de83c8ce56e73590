package listcache

// Status is where a query is in its read cycle.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// State is a snapshot of a query for rendering. Items and Params are copies.
type State[T any] struct {
	Items        []T
	Total        int
	Page         int
	ItemsPerPage int
	Params       Params

	Loading bool
	Error   string // human readable; "" when the last read succeeded
	Err     error  // *FetchError when Error is set
	Status  Status

	// derived on every snapshot
	TotalPages      int
	HasNextPage     bool
	HasPreviousPage bool
}

// TotalPages is ceil(total / perPage). Non-positive totals yield 0.
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

func HasNextPage(page, totalPages int) bool { return page < totalPages }

func HasPreviousPage(page int) bool { return page > 1 }

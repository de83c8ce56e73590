// Package listcache is a paginated, TTL-based read-through cache for
// list-shaped data (a page of items plus the unbounded total count).
//
// Components:
//   - Query[T]: one consumer (a screen, a handler). Owns page, page size and
//     filter params, exposes loading/error state and derived pagination.
//   - Store: shared mapping cache key -> Entry on top of a byte Provider
//     (memory, Ristretto, BigCache, Redis). Freshness is judged at read time.
//   - FetchFunc[T]: the only I/O boundary, injected by the caller.
//   - Codec[[]T]: (de)serializes a page of items <-> []byte.
//
// Keys:
//
//	<resource>-<canonical JSON of params + page + limit>
//
// Invalidation removes every key starting with the resource, i.e. every page
// of every filter combination.
//
// Usage:
//
//	q, _ := listcache.New(listcache.Options[Contact]{
//	    Resource: "contacts",
//	    Fetch:    fetchContacts,
//	    Store:    store, // shared across queries
//	})
//	defer q.Close()
//	q.Load(ctx)
//	q.SetParams(ctx, listcache.Params{"status": "ACTIVE"})
//	st := q.State() // st.Items, st.TotalPages, st.HasNextPage, st.Error ...
package listcache

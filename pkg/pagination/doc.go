// Package pagination holds the offset arithmetic behind the catalog views
// and the batch fetcher that fans lookups out in parallel.
//
// State is the page-level cursor over a remote list of Total items:
//
//	s := pagination.NewState(20).WithTotal(120).WithOffset(100)
//	s = s.Next()   // no-op: 100+20 is not < 120
//	s = s.Jump(-5) // clamps to 0
//
// Pager is the local cursor over an in-memory list (the moves of a detail
// record). Its NextPage/PrevPage are no-ops at the bounds.
//
// FetchAll dispatches one lookup per input on a bounded errgroup and returns
// only after every lookup has settled, with results in input order:
//
//	bf := pagination.NewBatchFetcher(pagination.DefaultConfig())
//	settled := pagination.FetchAll(ctx, bf, names, lookup)
//	for _, r := range settled {
//		if r.Err != nil { ... }
//	}
package pagination

// Package pagination drives the CleverTap cursor chain and exposes the
// downloaded profiles as a lazy record sequence.
//
// CleverTap hands out one cursor per batch and the next cursor only arrives
// with the current batch, so pages are fetched strictly one after another.
//
// Example usage:
//
//	it := pagination.New(api, query, pagination.DefaultConfig(), logger)
//	for rec, err := range it.Records(ctx) {
//		if err != nil {
//			return err
//		}
//		emit(rec)
//	}
//
// The iterator:
//   - Submits the query once to obtain the first cursor
//   - Yields an empty sequence when no cursor is returned
//   - Fetches pages while the server keeps returning a cursor
//   - Keeps going through empty pages that still carry a cursor
//   - Fails with PaginationLimitExceeded once MaxPages pages were read
//     and the server still offers more
package pagination

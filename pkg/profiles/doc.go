// Package profiles implements the CleverTap profiles download protocol.
//
// Downloading profiles is a two-step exchange with the same resource,
// /1/profiles.json:
//
//  1. POST a query (event name and YYYYMMDD date range). The server
//     answers with an opaque cursor, or with no cursor when nothing matched.
//  2. GET the resource with ?cursor=<token>. The server answers with a batch
//     of records and, while more remain, the next cursor.
//
// Example usage:
//
//	api := profiles.NewAPI(httpClient, region.Endpoint("in1"),
//		profiles.WithSecrets(cfg.Passcode))
//	cur, err := api.AcquireCursor(ctx, profiles.Query{EventName: "App Launched", From: 20220101, To: 20220131})
//	token, ok := cur.Token()
//	for ok {
//		page, err := api.FetchPage(ctx, token)
//		// handle err, consume page.Records
//		token, ok = page.Next.Token()
//	}
//
// The pagination package drives this loop with an iteration cap.
//
// A page request for a query that is still being prepared is answered with
// {"status":"fail","code":2}. FetchPage polls such a cursor with jittered
// exponential backoff, bounded by PendingPolicy.
package profiles

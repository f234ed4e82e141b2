// Package tokengate is an embeddable admission gate for per-day LLM token
// quotas. A Client connects to a shared Redis or Valkey instance and tracks
// one or more pools, each with its own daily limit derived from the
// provider's advertised ceiling.
//
// Callers ask a pool to admit an estimated request size before issuing the
// provider call and record the real response size afterwards:
//
//	gate, err := tokengate.New(
//		tokengate.WithRedis("localhost:6379", ""),
//		tokengate.WithPool("flash", 1_000_000),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer gate.Close()
//
//	pool := gate.Pool("flash")
//	ok, err := pool.Admit(ctx, estimate)
//	if err != nil || !ok {
//		// fall back or refuse the call
//	}
//	// ... call the provider ...
//	_ = pool.RecordResponse(ctx, resp.Usage.CompletionTokens)
//
// All state lives in the store, so any number of processes can share a
// pool: admissions are atomic and the daily rollover runs exactly once per
// boundary regardless of how many clients observe it.
package tokengate

package redisx

import "time"

const (
	// Bearer token of a browser session: storefront:token:{session_id} -> token
	KeyToken = "storefront:token:%s"

	// Dedup event processing: dedup:{consumer}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLToken = 30 * 24 * time.Hour
	TTLDedup = 48 * time.Hour
)

// Package redis implements the store interfaces and the distributed
// lock on Redis: one JSON entry per record, a List for the ordered queue
// index, and SET NX PX leases with token-checked release.
package redis

// Package postgres implements the store interfaces and the distributed
// lock on PostgreSQL. Job records and the queue index are plain tables;
// the lock uses session advisory locks on a dedicated connection.
package postgres

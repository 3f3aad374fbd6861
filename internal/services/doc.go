// Package services sits between the HTTP handlers and the store.
//
// SomethingService is a thin layer over store.Store. AtomicList shows how a multi-query
// read is made atomic: store.Atomic hands the callback a Store bound to the transaction
// context, and on a delegated alias the whole callback runs as one task on the worker.
package services

// Package core provides the business logic for writing link records into a
// multi-dimensional table and browsing the navigation catalog.
//
// The package knows nothing about HTTP, the CLI or a particular database. It
// talks to storage through the [TableStore] contract and is used unchanged by
// the web handlers, the linkbase CLI, the MCP tools and tests.
//
// # Architecture
//
//   - Store contract: [TableStore], [TableHandle] and [FieldHandle] describe the
//     active table, its fields and the batch write. Backends live under
//     internal/store.
//   - Header fetching: [FetchHeaders] lists the active table's fields.
//   - Name lookup: [FindByName] returns the first item with an exact name.
//   - Batch ingest: [Ingestor] filters incomplete records, converts the rest
//     into rows and writes them in one call. A store rejection of kind
//     "invalid operation" is logged and swallowed; anything else propagates.
//   - Value normalization: [Normalizer] formats a date value with a
//     pattern or reports that the value is not a date.
//   - Service: [Service] ties the above together with the ingest limiter,
//     CSV import and the annotated catalog.
//
// # Error Handling
//
// Operations return sentinel errors from errors.go wrapped with context.
// [MapError] turns any error into a [UserMessage] with a stable code:
//
//	if err != nil {
//	    msg := core.MapError(err)
//	    fmt.Println(msg.Code, msg.Message)
//	}
//
// # Concurrency
//
// [Service.Ingest] runs under an [IngestLimiter]. Shutdown code calls
// [Service.WaitForIngests] before closing the store.
package core

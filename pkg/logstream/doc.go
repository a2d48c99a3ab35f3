// Package logstream provides types, interfaces, and helpers for working with
// the HTTP API of a log-analytics server.
//
// # Overview
//
// The logstream package defines the domain types (LogStream, Schema, Stats,
// QueryResult, Filter, ...) and the interfaces for resource-oriented clients
// (StreamsClient, QueryClient, FiltersClient, ...). A concrete implementation
// is provided by the lsclient package, which wires configuration, transport,
// and authentication. Most consumers import lsclient to construct a client
// and then use the interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/logstream-client/pkg/logstream"
//	  "github.com/fivetwenty-io/logstream-client/pkg/lsclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := lsclient.NewWithPassword(ctx, "https://logs.example.com", "admin", "admin")
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  streams, err := cli.Streams().List(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = streams
//	}
//
// # Errors
//
// Every operation fails with *Error, classified by ErrorKind. A 401 is always
// KindUnauthorized, never a server error. Use errors.Is with the package
// sentinels (ErrUnauthorized, ErrNotFound, ...) or the helpers IsNotFound,
// IsUnauthorized, and IsDecodingError.
//
// # Payload shapes
//
// Responses differ between server versions. DecodeQueryResult accepts a
// wrapped object or a bare array, DecodeRetention a list, a single object, or
// an empty body, and EndpointNegotiator falls back from a newer endpoint to a
// legacy one on 404.
//
// # Caching
//
// Slowly changing reads (about, schema, stats, info) are cached for 60
// seconds per client. Any successful mutation clears the cache. Backends are
// pluggable through Cache: MemoryCache, NATSKVCache for sharing between
// processes, CacheChain, and NoOpCache.
package logstream

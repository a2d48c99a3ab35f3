// Package lsclient provides the primary entry point for constructing a
// log-analytics API client that implements the logstream.Client interface.
//
// It normalizes the connection's base URL, wires the credential store into
// basic authentication, and optionally checks the liveness endpoint before
// handing out the client.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//	  "time"
//
//	  "github.com/fivetwenty-io/logstream-client/pkg/logstream"
//	  "github.com/fivetwenty-io/logstream-client/pkg/lsclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := lsclient.NewWithPassword(ctx, "logs.example.com", "admin", "admin")
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  streams, err := cli.Streams().List(ctx)
//	  if err != nil { log.Fatal(err) }
//
//	  end := time.Now()
//	  result, err := cli.Query().Run(ctx, &logstream.QueryRequest{
//	    Query:     "SELECT * FROM " + streams[0].Name,
//	    StartTime: end.Add(-10 * time.Minute),
//	    EndTime:   end,
//	  })
//	  if err != nil { log.Fatal(err) }
//	  log.Printf("%d records", len(result.Records))
//	}
//
// Stored connections
//
// NewFromConnection builds a client from a logstream.Connection. The password
// is looked up in the credential store under the connection id on every
// request, so a rotated secret applies without rebuilding the client.
//
// Errors
//
// Failures are *logstream.Error values. Use errors.Is with the sentinels
// (logstream.ErrUnauthorized, logstream.ErrServerError, ...) or the helpers
// logstream.IsNotFound and logstream.StatusCode.
package lsclient

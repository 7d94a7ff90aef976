// Package netreq is an asynchronous HTTP/FTP request library built around a
// process-wide Manager: callers build a Context describing one request,
// Submit it, and read progress and the terminal Result off the returned
// ReplyHandle while the Manager's worker pool drives the network I/O on
// background goroutines.
//
// Get/Post/Put/Delete/Head/Upload run as single requests. Download streams
// one response body to disk. MTDownload splits a file into byte-range
// segments, fetches them concurrently into a shared memory-mapped temp file,
// and atomically renames it onto the final path once every segment
// succeeds.
package netreq

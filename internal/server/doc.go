// Package server implements the MCP (Model Context Protocol) server for the
// photo touch-up tools.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line, and exposes
// the rectifier and the enhancement pipeline as tools so an MCP client can
// inspect a scan, tune the mat colour and run the full touch-up.
//
// # Protocol
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// Lines that are not valid JSON are logged and dropped.
//
// # Available Tools
//
// Inspection:
//   - photo_load: Load a photo and report size, format and metadata
//   - photo_sample_hsv: Read the HSV colour of a pixel or the range of a region
//
// Rectification:
//   - photo_detect_boundary: Find the photo quadrilateral on its mat, with an overlay preview
//   - photo_rectify: Perspective-correct and trim the photo
//   - photo_find_background_hsv: Try the current range and the presets until one works
//
// Processing:
//   - photo_process: Run orient, crop, rotate, denoise, contrast and sharpen
//   - photo_process_batch: Run the pipeline over many files into an output directory
//
// Missing or malformed HSV bounds fall back to the configured defaults instead
// of failing the call.
//
// # Image Caching
//
// Loaded photos are cached by path for the lifetime of the process. Writing an
// output file evicts any cached copy of that path.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.WithConfig(cfg), server.WithLogger(log))
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server

// Package server implements an MCP (Model Context Protocol) server that
// exposes the augmentation engine as tools.
//
// It lets an MCP client inspect a dataset, try out placements and preview
// single augmented samples before committing to a full generation run.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Information:
//   - image_dimensions: Get width and height
//
// Geometry:
//   - check_overlap: Test two rectangles for overlap
//   - place_regions: Place boxes on a canvas, shrinking them until they fit
//
// Region Operations:
//   - extract_region: Cut an annotated box out with a context border
//
// Pipelines:
//   - parse_pipeline: Validate a pipeline expression and print it canonically
//   - augment_image: Run one annotated image through a pipeline
//
// Evaluation:
//   - count_error: Compare per-class box counts of two record directories
//
// Randomised tools take an optional seed. The same seed and arguments always
// produce the same result; augment_image additionally takes the sample index
// that a generation run would have used.
//
// # Image Caching
//
// Source images and backgrounds are cached by path for the lifetime of the
// server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	cfg := config.Default()
//	cfg.MaxShrinkIterations = 8
//	srv := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server

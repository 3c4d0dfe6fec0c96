// Package server implements the MCP (Model Context Protocol) server for mask
// vectorization tools.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line, and exposes
// the classifier and the contour exporter to MCP clients.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Mask Inspection:
//   - mask_info: Size, foreground pixels and component count of a mask image
//   - mask_classify: Statistics and background verdict for one mask
//
// Vectorization:
//   - mask_to_polygons: Merge masks and trace them, no classification
//   - instances_to_polygons: Classify per-instance masks, export the kept ones
//   - image_color_mask: Mask a photo by colour distance to its border, then trace
//
// Debugging:
//   - mask_debug_overlay: Kept masks tinted green, dropped masks red
//
// Every vectorizing tool accepts optional tuning arguments (min_area_px,
// eps_fraction, policy, mode, ...). They are applied on top of the
// configuration the server was started with and validated before any file is
// read.
//
// # Caching
//
// Decoded images are cached by path for the lifetime of the process, so
// repeated calls on the same masks skip disk I/O.
//
// # Logging
//
// Every tools/call gets a request_id which is attached to the log records of
// that call. Logs go to the slog.Logger passed to New, never to stdout.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and the Go error string in data.
//
// # Usage
//
//	srv := server.New(cfg, logger, version)
//	if err := srv.Run(); err != nil {
//	    logger.Error("server stopped", "error", err)
//	}
package server

// Package pkg provides the libraries behind tessera, a layout editor for
// grid dashboards.
//
// A dashboard shows widgets on a fixed grid. A layout places widget
// instances on rectangles of that grid; a scene (for example "main" or
// "kiosk") owns several layouts, shows one of them at a time, and may
// require or forbid particular widgets.
//
// # Packages
//
//  1. [grid] - Rectangle geometry: fitting to the grid, splitting
//  2. [layout] - Widget instances and layouts
//  3. [scene] - Scenes and the rules that keep layouts and scenes consistent
//  4. [store] - The single-writer layout store and every allowed edit
//  5. [codec] - Decoding untrusted snapshots and encoding saved ones
//  6. [persist] - Snapshot storage: memory, file, Redis, MongoDB, SQLite
//  7. [config], [api], [refgraph], [observability], [errors], [buildinfo]
//
// # Data flow
//
//	saved snapshot (persist)
//	         ↓
//	codec.Decode → initializers (config)
//	         ↓
//	store.Store ← edits (CLI, HTTP api)
//	         ↓
//	store.Save → persist
package pkg

// Package storage persists nippo's users, projects and daily reports in
// SQLite.
//
// # Overview
//
// The package owns the schema, the driver setup and every query the API
// layer runs. Failures surface as the sentinel errors in errors.go so
// handlers can map them to HTTP statuses with errors.Is instead of
// inspecting driver messages.
//
// The database is opened with foreign keys enforced and a single
// connection; SQLite serializes writers anyway, and one connection keeps
// ":memory:" test databases coherent.
package storage

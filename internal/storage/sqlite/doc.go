// Package sqlite persists TDE metric runs and per-location results in a
// sqlite database whose schema is managed by embedded migrations.
package sqlite

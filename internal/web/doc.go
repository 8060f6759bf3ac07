// Package web serves a read-only browser preview of the catalog: a track
// index rendered per request and file streaming by track id. It never
// writes to the catalog or the library.
package web

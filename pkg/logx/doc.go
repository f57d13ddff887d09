// Package logx is a thin structured-logging layer over zerolog.
//
// It exposes a small Logger value with Field helpers so call sites stay
// readable, and keeps the underlying sink configuration (console, file)
// in one place.
package logx

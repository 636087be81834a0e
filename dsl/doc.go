// Package dsl evaluates the relative date/time parameter syntax accepted by
// create and update operations ("<delta>|<format>", e.g. "2h|date") and splits
// "bucket/key" object locations.
package dsl

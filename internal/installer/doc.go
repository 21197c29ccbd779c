// Package installer renders a catalog of technologies into a project for
// one or more AI tools.
//
// Each target is processed in stages: technology rules and settings, then
// skills, then shared rules and skills, then the aggregated file built
// from rules marked alwaysApply. Technologies are handled in the order
// given and files within a directory in lexical order, which is also the
// order of sections in the aggregated file. Nothing is rolled back on
// failure.
//
// Unknown targets, unknown technologies, and missing technology
// directories are rejected before the first write, in dry runs too.
package installer

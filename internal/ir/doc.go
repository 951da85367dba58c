// Package ir holds the linearized form of a Scratch project: the four
// ordered lists (targets, blocks, variables and, per merged-run block,
// helpers) that the C emitter renders without further graph walking.
//
// Blocks live in an arena (Program.Blocks) and link to each other by
// BlockID index; NoBlockID marks an absent link.
package ir

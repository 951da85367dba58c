// Package diag defines the error and diagnostic model shared by all scratchc
// passes.
//
// # Data model
//
// Error is what the passes return. It carries:
//
//   - Code – compact numeric identifier (see codes.go) with a stable string
//     form such as LOW2001.
//   - Message – human oriented text; keep it short and actionable.
//   - Where – the file, target, block id and opcode the failure refers to.
//   - Cause – optional wrapped lower-level error.
//
// Any Error aborts the compilation of the whole project. The driver turns
// errors into Diagnostic records, collects them in a Bag for batch builds,
// and the CLI renders them with Format.
//
// # Code families
//
//   - LOAD1xxx – decoding the .sb3 archive / project.json.
//   - LOW2xxx – linearization, flattening and variable resolution.
//   - EMIT3xxx – C emission.
//   - PRJ4xxx – manifest and output files.
package diag

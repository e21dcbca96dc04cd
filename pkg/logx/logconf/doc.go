// Package logconf finds, applies and watches logbridge logging configuration.
//
// Two well-known files are looked up in the application root folder:
//   - logging.Development.config, used only in development mode
//     (built with -tags debug, or Options.Mode = ModeDevelopment)
//   - logging.config, the default
//
// Files are XML unless their extension says YAML (.yaml/.yml) or JSON (.json).
// Once applied, the file is watched; edits are re-applied to the same
// logx.Context, replacing the sinks the file created and leaving sinks added
// in code (such as event sinks) alone.
package logconf

// Package ui provides terminal output formatting for powerdev.
//
// This package handles all operator-facing output with consistent styling:
//   - Colored output (cyan, green, red, yellow)
//   - Headers and footers with box-drawing characters
//   - Info, success, failure, and warning messages
//   - Dimmed text for secondary information
//   - A yes/no confirmation prompt
//
// All output goes to ui.Out (defaults to os.Stderr) so that command
// output such as container logs stays clean on stdout, and so tests
// can redirect it.
//
// Output styling:
//   - Info:    → Cyan arrow
//   - Success: ✔ Green checkmark
//   - Fail:    ✘ Red X
//   - Warn:    ○ Yellow circle
package ui

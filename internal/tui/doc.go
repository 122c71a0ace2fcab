// Package tui provides the interactive task prompt for o1.
//
// When no task is given on the command line, the CLI asks for one with a
// single-line bubbletea program:
//
//	task, err := tui.Ask(ctx, os.Stdin, os.Stdout)
//	if errors.Is(err, tui.ErrCanceled) {
//	    return nil
//	}
//
// Enter submits the trimmed text and empty input is ignored. Esc or Ctrl+C
// cancels.
package tui

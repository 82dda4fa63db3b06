/*
Package cli provides command-line interface utilities shared by the
gatewayd binary: output formatters, typed command/config errors, and
graceful-shutdown signal handling.

Output Formatting:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, data); err != nil {
		return err
	}

Signal Handling:

	sigChan := cli.WaitForShutdown()
	sig := <-sigChan
*/
package cli

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vigilsec/argus/internal/core"
	"github.com/vigilsec/argus/internal/render"
)

// cliChannel delivers progress and the final report to the terminal.
type cliChannel struct {
	out    io.Writer
	format string // term, markdown, json
	quiet  bool
}

func newCLIChannel(out io.Writer, format string, quiet bool) *cliChannel {
	return &cliChannel{out: out, format: format, quiet: quiet}
}

func (c *cliChannel) SendProgress(_ context.Context, _ core.SessionHandle, update core.ProgressUpdate) error {
	if c.quiet {
		return nil
	}
	fmt.Fprintf(c.out, "[%d/%d] %s\n", update.Completed, update.Total, update.Stage)
	return nil
}

func (c *cliChannel) SendFinal(_ context.Context, _ core.SessionHandle, report core.SynthesizedReport) error {
	switch c.format {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "markdown":
		fmt.Fprintln(c.out, render.Markdown(report))
		return nil
	default:
		fmt.Fprintln(c.out, render.StatusLine(report))
		fmt.Fprintln(c.out)
		fmt.Fprint(c.out, render.New(render.WithColor(!noColor)).Render(report))
		return nil
	}
}

var _ core.SessionChannel = (*cliChannel)(nil)

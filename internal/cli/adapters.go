package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mrlokans/courserecords/internal/adapters/builtin"
)

// AdaptersCommand lists the registered adapters.
type AdaptersCommand struct {
	JSON bool

	Out io.Writer
}

func NewAdaptersCommand() *AdaptersCommand {
	return &AdaptersCommand{}
}

func (cmd *AdaptersCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("adapters", flag.ContinueOnError)
	fs.BoolVar(&cmd.JSON, "json", false, "Print adapter descriptors as JSON")
	return fs.Parse(args)
}

func (cmd *AdaptersCommand) Run() error {
	out := output(cmd.Out)
	infos := builtin.NewRegistry().List()

	if cmd.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFORMATS\tEXPORT\tNAME")
	for _, info := range infos {
		export := "no"
		if info.Bidirectional {
			export = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.ID, strings.Join(info.SupportedFormats, ","), export, info.Name)
	}
	return tw.Flush()
}

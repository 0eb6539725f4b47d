package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/courserecords/internal/adapters/generic"
	"github.com/mrlokans/courserecords/internal/config"
	"github.com/mrlokans/courserecords/internal/exporters"
)

// ExportCommand writes an institution's records through a named adapter.
type ExportCommand struct {
	AdapterID     string
	InstitutionID string
	OutputPath    string
	DatabasePath  string
	Verbose       bool

	Out io.Writer
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)

	fs.StringVar(&cmd.AdapterID, "adapter", generic.AdapterID, "Adapter id of a bidirectional adapter")
	fs.StringVar(&cmd.InstitutionID, "institution", "", "Institution id to export (empty exports every institution)")
	fs.StringVar(&cmd.OutputPath, "output", "", "Path of the file to write (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the course records database")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export -output <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export course records to a file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s export -adapter institution_xlsx -institution inst-1 -output courses.xlsx\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.OutputPath == "" {
		return fmt.Errorf("required flag -output not provided")
	}
	return nil
}

func (cmd *ExportCommand) Run() error {
	out := output(cmd.Out)

	absOutput, err := filepath.Abs(cmd.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absOutput), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	s, err := openStack(cmd.DatabasePath, "", cmd.Verbose)
	if err != nil {
		return err
	}
	defer s.Close()

	service := exporters.NewService(exporters.Config{
		Registry: s.registry,
		Store:    s.store,
		Recorder: s.audit,
		Logger:   s.logger,
	})

	result, err := service.Export(context.Background(), cmd.AdapterID, cmd.InstitutionID, absOutput)
	if err != nil {
		return fmt.Errorf("export through %s failed: %w", cmd.AdapterID, err)
	}

	fmt.Fprintf(out, "%s\n", result.Message)
	fmt.Fprintf(out, "Written: %s\n", absOutput)
	return nil
}

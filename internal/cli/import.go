package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/config"
	"github.com/mrlokans/courserecords/internal/importers"
)

// ImportCommand imports one file through a named adapter.
type ImportCommand struct {
	AdapterID     string
	FilePath      string
	InstitutionID string
	Strategy      string
	DryRun        bool
	DatabasePath  string
	AuditDir      string
	Verbose       bool

	// DefaultStrategy applies when -strategy is not given.
	DefaultStrategy adapters.ConflictStrategy

	Out io.Writer
}

// NewImportCommand creates the command with the conflict strategy configured
// through DEFAULT_CONFLICT_STRATEGY.
func NewImportCommand() *ImportCommand {
	return &ImportCommand{DefaultStrategy: config.NewConfig().Import.DefaultStrategy}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	if cmd.DefaultStrategy == "" {
		cmd.DefaultStrategy = adapters.UseTheirs
	}

	fs.StringVar(&cmd.AdapterID, "adapter", "", "Adapter id, see the adapters command (required)")
	fs.StringVar(&cmd.FilePath, "file", "", "Path to the file to import (required)")
	fs.StringVar(&cmd.InstitutionID, "institution", "", "Institution id assigned to records that carry none")
	fs.StringVar(&cmd.Strategy, "strategy", string(cmd.DefaultStrategy), "Conflict strategy: use_theirs or use_mine")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Report what would change without writing")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the course records database")
	fs.StringVar(&cmd.AuditDir, "audit-dir", "./audit", "Directory for import reports (empty disables)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every record error and warning")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -adapter <id> -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import course records from a file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Preview a spreadsheet import:\n")
		fmt.Fprintf(os.Stderr, "  %s import -adapter institution_xlsx -file courses.xlsx -institution inst-1 -dry-run\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Restore a backup without overwriting existing records:\n")
		fmt.Fprintf(os.Stderr, "  %s import -adapter generic_csv -file backup.zip -strategy use_mine\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.AdapterID == "" {
		return fmt.Errorf("required flag -adapter not provided")
	}
	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	if _, err := adapters.ParseConflictStrategy(cmd.Strategy, cmd.DefaultStrategy); err != nil {
		return err
	}
	return nil
}

func (cmd *ImportCommand) Run() error {
	out := output(cmd.Out)

	if _, err := os.Stat(cmd.FilePath); err != nil {
		return fmt.Errorf("file not found: %s", cmd.FilePath)
	}

	s, err := openStack(cmd.DatabasePath, cmd.AuditDir, cmd.Verbose)
	if err != nil {
		return err
	}
	defer s.Close()

	orchestrator := importers.NewOrchestrator(importers.Config{
		Registry:        s.registry,
		Store:           s.store,
		Recorder:        s.audit,
		Logger:          s.logger,
		DefaultStrategy: cmd.DefaultStrategy,
	})

	fmt.Fprintln(out, "Course Records Import")
	fmt.Fprintln(out, "=====================")
	if cmd.DryRun {
		fmt.Fprintln(out, "DRY RUN MODE - No changes will be made")
	}
	fmt.Fprintf(out, "Adapter: %s\nFile: %s\n\n", cmd.AdapterID, cmd.FilePath)

	report, err := orchestrator.Import(context.Background(), cmd.AdapterID, cmd.FilePath, adapters.Options{
		InstitutionID:    cmd.InstitutionID,
		ConflictStrategy: adapters.ConflictStrategy(cmd.Strategy),
		DryRun:           cmd.DryRun,
	})
	if errors.Is(err, adapters.ErrNotImplemented) {
		return fmt.Errorf("%s cannot import files: %w", cmd.AdapterID, err)
	}
	if report != nil {
		PrintReport(out, report, cmd.Verbose)
	}
	return err
}

// maxListed caps error and warning listings unless verbose output is on.
const maxListed = 10

// PrintReport writes a human summary of an import report.
func PrintReport(w io.Writer, report *importers.Report, verbose bool) {
	fmt.Fprintf(w, "=== Import Summary ===\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)
	fmt.Fprintf(w, "%s\n", report.Message)

	if report.Status == importers.StatusRejected {
		return
	}

	names := make([]string, 0, len(report.Entities))
	for name := range report.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		fmt.Fprintf(w, "\n%-18s %7s %7s %7s %7s %7s\n", "entity", "total", "created", "updated", "skipped", "errored")
		for _, name := range names {
			c := report.Entities[name]
			fmt.Fprintf(w, "%-18s %7d %7d %7d %7d %7d\n", name, c.Total, c.Created, c.Updated, c.Skipped, c.Errored)
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\n%d record errors:\n", len(report.Errors))
		for i, e := range report.Errors {
			if !verbose && i == maxListed {
				fmt.Fprintf(w, "  ... %d more (use -verbose)\n", len(report.Errors)-maxListed)
				break
			}
			fmt.Fprintf(w, "  [ERROR] %s\n", e)
		}
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintf(w, "\n%d warnings:\n", len(report.Warnings))
		for i, warning := range report.Warnings {
			if !verbose && i == maxListed {
				fmt.Fprintf(w, "  ... %d more (use -verbose)\n", len(report.Warnings)-maxListed)
				break
			}
			fmt.Fprintf(w, "  [WARN] %s\n", warning)
		}
	}
}

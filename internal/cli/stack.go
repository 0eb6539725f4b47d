// Package cli implements the one-shot import, export and adapters commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/adapters/builtin"
	"github.com/mrlokans/courserecords/internal/audit"
	"github.com/mrlokans/courserecords/internal/database"
	auditRepo "github.com/mrlokans/courserecords/internal/database/audit"
	"github.com/mrlokans/courserecords/internal/database/records"
	"github.com/mrlokans/courserecords/internal/logging"
)

// stack is the set of services a command runs against.
type stack struct {
	db       *database.Database
	registry *adapters.Registry
	store    *records.Repository
	audit    *audit.Service
	logger   zerolog.Logger
}

func openStack(dbPath, auditDir string, verbose bool) (*stack, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := logging.Configure(logging.Config{Level: level, Pretty: true, Output: os.Stderr})

	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var auditor *audit.Auditor
	if auditDir != "" {
		auditor = audit.NewAuditor(auditDir)
	}

	return &stack{
		db:       db,
		registry: builtin.NewRegistry(),
		store:    records.NewRepository(db.DB),
		audit:    audit.NewService(auditRepo.NewRepository(db.DB), auditor, logger),
		logger:   logger,
	}, nil
}

func (s *stack) Close() error {
	return s.db.Close()
}

func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

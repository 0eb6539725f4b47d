// Package builtin wires every adapter shipped with the service into a registry.
package builtin

import (
	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/adapters/document"
	"github.com/mrlokans/courserecords/internal/adapters/generic"
	"github.com/mrlokans/courserecords/internal/adapters/spreadsheet"
)

func NewRegistry() *adapters.Registry {
	return adapters.NewRegistry(
		document.NewTextBlockAdapter(),
		document.NewTableAdapter(),
		generic.NewAdapter(),
		spreadsheet.NewAdapter(),
	)
}

// Package adapters defines the contract shared by every course-data file format.
//
// # Architecture
//
// An import run flows through an adapter like this:
//
//	file → ValidateFileCompatibility → Parse → ParseResult{Entities, Warnings} → importers.Orchestrator → RecordStore
//
// and an export run the other way:
//
//	RecordStore → exporters.Service → Adapter.Export → file
//
// Adapters are pure: a parse depends only on the file and the Options, and no
// state survives between calls. Field-level problems are reported as Warning
// values in the ParseResult. Structural problems (a broken ZIP, invalid JSON)
// are returned as errors for the orchestrator to classify.
//
// # Adding a New Format
//
//  1. Create a sub-package (e.g. internal/adapters/banner/).
//
//  2. Embed Base for the shared file checks and implement Adapter:
//
//     type Adapter struct {
//     adapters.Base
//     }
//
//     func (a *Adapter) Info() adapters.Info { ... }
//
//     var _ adapters.Adapter = (*Adapter)(nil)
//
//  3. Register it in internal/adapters/builtin.
//
// Formats that only produce flat one-row-per-section data can hand their rows
// to NormalizeCourseRecords instead of building every entity themselves.
package adapters

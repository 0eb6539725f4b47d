package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the upload ceiling applied when an adapter does not set one.
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// ValidationResult accumulates the outcome of a compatibility check.
// Errors block the operation; warnings are informational only.
type ValidationResult struct {
	IsCompatible bool     `json:"is_compatible"`
	Message      string   `json:"message"`
	DataTypes    []string `json:"data_types,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

func NewValidationResult() *ValidationResult {
	return &ValidationResult{IsCompatible: true}
}

// AddError records a blocking problem and marks the result incompatible.
func (v *ValidationResult) AddError(msg string) {
	v.Errors = append(v.Errors, msg)
	v.IsCompatible = false
	if v.Message == "" {
		v.Message = msg
	}
}

// AddWarning records an informational note. It never changes IsCompatible.
func (v *ValidationResult) AddWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

// HasErrors is the only branch callers should take on.
func (v *ValidationResult) HasErrors() bool {
	return len(v.Errors) > 0
}

// Outcome flattens the result into the (compatible, message) pair of the Adapter contract.
func (v *ValidationResult) Outcome() (bool, string) {
	if v.HasErrors() {
		return false, v.Errors[0]
	}
	if v.Message == "" {
		return true, "File is compatible"
	}
	return true, v.Message
}

// Base provides the shared file checks every adapter runs before format-specific validation.
type Base struct {
	SupportedFormats []string
	MaxFileSize      int64
}

func NewBase(formats ...string) Base {
	return Base{SupportedFormats: formats, MaxFileSize: DefaultMaxFileSize}
}

func (b Base) maxSize() int64 {
	if b.MaxFileSize > 0 {
		return b.MaxFileSize
	}
	return DefaultMaxFileSize
}

func (b Base) ValidateFileExists(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Sprintf("file not found: %s", path)
		}
		return false, fmt.Sprintf("cannot access file: %v", err)
	}
	if info.IsDir() {
		return false, fmt.Sprintf("path is a directory: %s", path)
	}
	return true, ""
}

func (b Base) ValidateFileSize(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Sprintf("cannot access file: %v", err)
	}
	if info.Size() > b.maxSize() {
		return false, fmt.Sprintf("file is %.1fMB, larger than the %.0fMB limit",
			float64(info.Size())/(1024*1024), float64(b.maxSize())/(1024*1024))
	}
	if info.Size() == 0 {
		return false, "file is empty"
	}
	return true, ""
}

func (b Base) ValidateFileExtension(path string) (bool, string) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range b.SupportedFormats {
		if ext == strings.ToLower(f) {
			return true, ""
		}
	}
	return false, fmt.Sprintf("unsupported file extension %q (expected %s)", ext, strings.Join(b.SupportedFormats, ", "))
}

// ValidateBasics runs the existence, size and extension checks in that order,
// stopping at the first failure.
func (b Base) ValidateBasics(path string) *ValidationResult {
	result := NewValidationResult()
	checks := []func(string) (bool, string){
		b.ValidateFileExists,
		b.ValidateFileSize,
		b.ValidateFileExtension,
	}
	for _, check := range checks {
		if ok, msg := check(path); !ok {
			result.AddError(msg)
			return result
		}
	}
	return result
}

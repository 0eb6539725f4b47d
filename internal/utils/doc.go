// Package utils holds small helpers shared by the export paths.
package utils

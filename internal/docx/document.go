// Package docx reads the text content of Word (.docx) documents: body
// paragraphs and tables, in document order.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

// Document is the text-level view of a Word document.
type Document struct {
	// Paragraphs are the body paragraphs outside of tables.
	Paragraphs []string
	Tables     []Table
}

// Table is a grid of cell texts. Rows may have different lengths.
type Table struct {
	Rows [][]string
}

// Open reads a .docx file from disk.
func Open(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer zr.Close()

	return fromZip(&zr.Reader)
}

// Read parses a .docx held in memory or in any random-access reader.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return fromZip(zr)
}

// IsDocument reports whether the archive contains a Word document part.
func IsDocument(path string) bool {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name == documentPart {
			return true
		}
	}
	return false
}

func fromZip(zr *zip.Reader) (*Document, error) {
	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", documentPart, err)
		}
		defer rc.Close()
		return decode(rc)
	}
	return nil, fmt.Errorf("not a Word document: %s missing", documentPart)
}

// decode walks document.xml as a token stream. Only w:p, w:t, w:tab, w:br and
// the table elements matter; everything else is skipped. Nested tables are
// flattened into the text of the enclosing cell, and paragraphs nested in a
// paragraph (text boxes) into the text of the outer one.
func decode(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{}

	var (
		tableDepth int
		table      *Table
		row        []string
		cell       strings.Builder
		para       strings.Builder
		paraDepth  int
		inRun      bool
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					table = &Table{}
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
				}
			case "p":
				paraDepth++
				if paraDepth == 1 {
					para.Reset()
				} else {
					separate(&para)
				}
			case "r":
				inRun = true
			case "t":
				inText = true
			case "tab":
				if inRun {
					para.WriteString("\t")
				}
			case "br":
				if inRun {
					para.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
				if tableDepth == 0 {
					doc.Tables = append(doc.Tables, *table)
					table = nil
				}
			case "tr":
				if tableDepth == 1 {
					table.Rows = append(table.Rows, row)
				}
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "p":
				paraDepth--
				if paraDepth > 0 {
					separate(&para)
					break
				}
				if tableDepth > 0 {
					if cell.Len() > 0 {
						cell.WriteString("\n")
					}
					cell.WriteString(para.String())
				} else {
					doc.Paragraphs = append(doc.Paragraphs, para.String())
				}
			case "r":
				inRun = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && paraDepth > 0 {
				para.Write(t)
			}
		}
	}

	return doc, nil
}

// separate keeps the text of a nested paragraph apart from its surroundings.
func separate(b *strings.Builder) {
	if s := b.String(); s != "" && !strings.HasSuffix(s, " ") {
		b.WriteString(" ")
	}
}

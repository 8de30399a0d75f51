package convert

import (
	"context"

	"docconvert/internal/engine"
)

// Routine is the external converter collaborator: it reads the input file
// in its entirety, writes a complete artifact at outputPath, and has no
// other observable side effect. The service invokes it only through
// RunWithDeadline.
type Routine interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
}

// Mode is one named conversion direction with its fixed input and output
// extensions. The set of modes is defined at process start and never
// mutated.
type Mode struct {
	ID        string
	Routine   Routine
	OutputExt string
	InputExts map[string]bool
}

// ContentTypes maps an accepted input extension to the declared MIME
// types allowed for it. Browsers frequently send octet-stream for office
// documents, so it is allowed everywhere.
var ContentTypes = map[string][]string{
	".pdf": {"application/pdf", "application/octet-stream"},
	".doc": {"application/msword", "application/octet-stream"},
	".docx": {
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/octet-stream",
	},
	".xls": {"application/vnd.ms-excel", "application/octet-stream"},
	".xlsx": {
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/octet-stream",
	},
}

// Registry resolves mode identifiers to their conversion mode. Content is
// fixed at construction; Resolve is a pure lookup.
type Registry struct {
	modes map[string]Mode
}

// NewRegistry builds the four-mode registry backed by the document engine.
func NewRegistry(client *engine.Client) *Registry {
	modes := []Mode{
		{
			ID:        "pdf-to-word",
			Routine:   PDFToWord{Client: client},
			OutputExt: ".docx",
			InputExts: map[string]bool{".pdf": true},
		},
		{
			ID:        "pdf-to-excel",
			Routine:   PDFToExcel{Client: client},
			OutputExt: ".xlsx",
			InputExts: map[string]bool{".pdf": true},
		},
		{
			ID:        "word-to-pdf",
			Routine:   WordToPDF{Client: client},
			OutputExt: ".pdf",
			InputExts: map[string]bool{".doc": true, ".docx": true},
		},
		{
			ID:        "excel-to-pdf",
			Routine:   ExcelToPDF{Client: client},
			OutputExt: ".pdf",
			InputExts: map[string]bool{".xls": true, ".xlsx": true},
		},
	}
	byID := make(map[string]Mode, len(modes))
	for _, m := range modes {
		byID[m.ID] = m
	}
	return &Registry{modes: byID}
}

// Resolve returns the mode registered under id.
func (r *Registry) Resolve(id string) (Mode, bool) {
	m, ok := r.modes[id]
	return m, ok
}

// IDs lists the registered mode identifiers.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.modes))
	for id := range r.modes {
		ids = append(ids, id)
	}
	return ids
}

package convert

import (
	"context"

	"docconvert/internal/engine"
)

// The four converter collaborators, one per mode. Each delegates to a
// document-engine route; PDF extraction and office rendering happen
// entirely inside the engine.

type PDFToWord struct {
	Client *engine.Client
}

func (r PDFToWord) Convert(ctx context.Context, inputPath, outputPath string) error {
	return r.Client.Convert(ctx, "/forms/documents/pdf-to-docx", inputPath, outputPath)
}

type PDFToExcel struct {
	Client *engine.Client
}

func (r PDFToExcel) Convert(ctx context.Context, inputPath, outputPath string) error {
	return r.Client.Convert(ctx, "/forms/documents/pdf-to-xlsx", inputPath, outputPath)
}

// WordToPDF and ExcelToPDF both go through the engine's LibreOffice
// route, which renders any office document to PDF.

type WordToPDF struct {
	Client *engine.Client
}

func (r WordToPDF) Convert(ctx context.Context, inputPath, outputPath string) error {
	return r.Client.Convert(ctx, "/forms/libreoffice/convert", inputPath, outputPath)
}

type ExcelToPDF struct {
	Client *engine.Client
}

func (r ExcelToPDF) Convert(ctx context.Context, inputPath, outputPath string) error {
	return r.Client.Convert(ctx, "/forms/libreoffice/convert", inputPath, outputPath)
}

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

const (
	// ExportFilename is the download name of the exported report set.
	ExportFilename = "relatorio.json"
	// ExportContentType is the MIME type of the export.
	ExportContentType = "application/json"
)

// MarshalExport serializes reports as a 2-space indented JSON array.
func MarshalExport(reports []models.Report) ([]byte, error) {
	if reports == nil {
		reports = []models.Report{}
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding reports: %w", err)
	}
	return data, nil
}

// ExportJSON writes the export to w. Nothing is written if encoding fails.
func ExportJSON(w io.Writer, reports []models.Report) error {
	data, err := MarshalExport(reports)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}

// ParseExport decodes a previously exported report array.
func ParseExport(data []byte) ([]models.Report, error) {
	var reports []models.Report
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("decoding reports: %w", err)
	}
	return reports, nil
}

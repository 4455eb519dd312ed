package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

// FileSource reads reports from a JSON array file in the export format.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Name() string {
	return "file"
}

// Fetch decodes each array element on its own so one malformed document does
// not hide the others.
func (f *FileSource) Fetch(_ context.Context, _ *oauth2.Token) (*Result, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("reading %s: invalid JSON", f.Path)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("reading %s: expected a JSON array of reports", f.Path)
	}

	res := &Result{}
	for i, doc := range root.Array() {
		r, err := decodeStrict(doc.Raw)
		res.Accept(strconv.Itoa(i), r, err)
	}
	return res, nil
}

// decodeStrict rejects unknown fields and type mismatches.
func decodeStrict(raw string) (models.Report, error) {
	var r models.Report
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return models.Report{}, err
	}
	return r, nil
}

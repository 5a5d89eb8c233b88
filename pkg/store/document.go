package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/offlinefirst/robodesk/pkg/macro"
)

// SchemaVersion is the document format written by this build.
const SchemaVersion = 1

// Document is the durable envelope around a stored function.
type Document struct {
	SchemaVersion int            `json:"schema_version"`
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	CreatedAt     time.Time      `json:"created_at"`
	Hostname      string         `json:"hostname,omitempty"`
	AppVersion    string         `json:"app_version,omitempty"`
	Function      macro.Function `json:"function"`
}

func encodeDocument(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%w: decode document: %w", macro.ErrCorruptData, err)
	}
	if doc.SchemaVersion < 1 || doc.SchemaVersion > SchemaVersion {
		return doc, fmt.Errorf("%w: unsupported schema version %d (max supported: %d)",
			macro.ErrCorruptData, doc.SchemaVersion, SchemaVersion)
	}
	if err := doc.Function.Validate(); err != nil {
		return doc, err
	}
	return doc, nil
}

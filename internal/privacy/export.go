package privacy

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"
)

// Format names an export serialization.
type Format string

const (
	// FormatJSON is the machine-parseable serialization.
	FormatJSON Format = "json"
	// FormatCSV is the human-readable tabular serialization.
	FormatCSV Format = "csv"
)

// ExportRecord is one decrypted vault record inside an export document.
// Data carries the plaintext payload exactly as it was stored.
type ExportRecord struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Data      []byte     `json:"data"`
}

// ExportDocument is the full serialized export. Both formats encode the
// same document and decode back to it, so an export in either format is
// reconstructible without loss.
type ExportDocument struct {
	UserID      string         `json:"user_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Records     []ExportRecord `json:"records"`
}

var csvHeader = []string{"id", "user_id", "category", "created_at", "expires_at", "data"}

// EncodeDocument serializes the document in the requested format.
func EncodeDocument(doc *ExportDocument, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatCSV:
		return encodeCSV(doc)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// DecodeDocument parses an export back into a document. The generated-at
// timestamp is not carried by the CSV form and stays zero there.
func DecodeDocument(data []byte, format Format) (*ExportDocument, error) {
	switch format {
	case FormatJSON:
		doc := &ExportDocument{}
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, err
		}
		return doc, nil
	case FormatCSV:
		return decodeCSV(data)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func encodeCSV(doc *ExportDocument) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range doc.Records {
		expires := ""
		if r.ExpiresAt != nil {
			expires = r.ExpiresAt.Format(time.RFC3339Nano)
		}
		row := []string{
			r.ID,
			doc.UserID,
			r.Category,
			r.CreatedAt.Format(time.RFC3339Nano),
			expires,
			string(r.Data),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeCSV(data []byte) (*ExportDocument, error) {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty csv export")
	}

	doc := &ExportDocument{}
	for i, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("csv row %d: expected %d columns, got %d", i+1, len(csvHeader), len(row))
		}

		createdAt, err := time.Parse(time.RFC3339Nano, row[3])
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", i+1, err)
		}

		var expiresAt *time.Time
		if row[4] != "" {
			t, err := time.Parse(time.RFC3339Nano, row[4])
			if err != nil {
				return nil, fmt.Errorf("csv row %d: %w", i+1, err)
			}
			expiresAt = &t
		}

		doc.UserID = row[1]
		doc.Records = append(doc.Records, ExportRecord{
			ID:        row[0],
			Category:  row[2],
			CreatedAt: createdAt,
			ExpiresAt: expiresAt,
			Data:      []byte(row[5]),
		})
	}
	return doc, nil
}

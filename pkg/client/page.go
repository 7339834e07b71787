package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawRecord is one record as the API returned it: string keys, heterogeneous
// values. Nothing downstream of the normalizer ever touches one of these.
type RawRecord = map[string]any

// Page is one bounded batch of results. TotalCount is only meaningful on the
// first page of a search enumeration; it stays 0 everywhere else.
type Page struct {
	Items      []RawRecord
	TotalCount int
}

// ParsePage decodes a response body into a Page. Three shapes occur:
// a {"items": [...], "total_count": N} search envelope, a bare JSON array
// (list endpoints), and a single object (detail endpoints), which becomes a
// one-item page.
func ParsePage(data []byte) (*Page, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &Page{}, nil
	}

	if trimmed[0] == '[' {
		var items []RawRecord
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("parse list page: %w", err)
		}
		return &Page{Items: items}, nil
	}

	var obj RawRecord
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	rawItems, ok := obj["items"]
	if !ok {
		// Detail endpoint: the object itself is the record.
		return &Page{Items: []RawRecord{obj}}, nil
	}

	envelope, ok := rawItems.([]any)
	if !ok {
		return nil, fmt.Errorf("parse search page: items is %T, want array", rawItems)
	}

	page := &Page{Items: make([]RawRecord, 0, len(envelope))}
	for i, entry := range envelope {
		record, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parse search page: item %d is %T, want object", i, entry)
		}
		page.Items = append(page.Items, record)
	}

	if total, ok := obj["total_count"].(float64); ok {
		page.TotalCount = int(total)
	}
	return page, nil
}

package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type page[T any] struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []T    `json:"results"`
}

// decodeList accepts both a bare array and a paginated {"results": [...]} body.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		items := []T{}
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed decoding list with error=%w", err)
		}
		return items, nil
	}

	p := page[T]{}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("failed decoding page with error=%w", err)
	}
	if p.Results == nil {
		return []T{}, nil
	}
	return p.Results, nil
}

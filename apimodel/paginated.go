package apimodel

import (
	"bytes"
	"encoding/json"
)

// List decodes collection endpoints that answer either with a raw JSON array
// or with a paginated envelope {"count", "next", "previous", "results"}.
type List[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (l *List[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = List[T]{Count: len(items), Results: items}
		return nil
	}

	var env struct {
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []T     `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	*l = List[T]{Count: env.Count, Next: env.Next, Previous: env.Previous, Results: env.Results}
	if l.Results == nil {
		l.Results = []T{}
	}
	return nil
}

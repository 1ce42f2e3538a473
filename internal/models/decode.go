package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeCandidates parses the arguments of a generate_profiles tool call.
// Any deviation from {"suggestions":[{"username":string,"bio":string}]}
// fails the whole decode; nothing is salvaged from a partially valid payload.
// Only the shape is checked: empty strings are valid values.
func DecodeCandidates(raw []byte) ([]ProfileCandidate, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty tool arguments", ErrMalformedResponse)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: arguments are not an object: %v", ErrMalformedResponse, err)
	}

	list, ok := envelope["suggestions"]
	if !ok {
		return nil, fmt.Errorf("%w: missing suggestions array", ErrMalformedResponse)
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil || items == nil {
		return nil, fmt.Errorf("%w: suggestions is not an array of objects", ErrMalformedResponse)
	}

	candidates := make([]ProfileCandidate, 0, len(items))
	for i, item := range items {
		username, err := stringField(item, "username")
		if err != nil {
			return nil, fmt.Errorf("%w: suggestion %d: %v", ErrMalformedResponse, i, err)
		}
		bio, err := stringField(item, "bio")
		if err != nil {
			return nil, fmt.Errorf("%w: suggestion %d: %v", ErrMalformedResponse, i, err)
		}
		candidates = append(candidates, ProfileCandidate{Username: username, Bio: bio})
	}

	return candidates, nil
}

func stringField(obj map[string]json.RawMessage, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s is not a string", key)
	}
	return s, nil
}

package domain

import "encoding/json"

// DecodePolitician converts a decoded-JSON record into the typed model via
// a JSON round-trip. Upstream records carry fields this model does not
// declare; those are dropped here, which is why the detail store keeps the
// raw map instead of this struct.
func DecodePolitician(p map[string]any) (Politician, error) {
	var pol Politician
	data, err := json.Marshal(p)
	if err != nil {
		return pol, err
	}
	if err := json.Unmarshal(data, &pol); err != nil {
		return pol, err
	}
	return pol, nil
}

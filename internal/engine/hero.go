package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// HeroID identifies a hero. Catalogs use either numeric or string ids, so both
// decode into the same value.
type HeroID string

func (id *HeroID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = HeroID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("hero id: %w", err)
	}
	*id = HeroID(n.String())
	return nil
}

// Hero is an entry from the external catalog. Only ID matters to the draft.
type Hero struct {
	ID    HeroID   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Image string   `json:"image,omitempty"`
	Roles []string `json:"role,omitempty"`
}

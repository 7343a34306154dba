package board

import (
	"encoding/json"
	"os"
	"time"

	"MarketPulse/internal/model"
)

// LoadState reads the board from a JSON file. Returns an empty board if the file doesn't exist.
func LoadState(filePath string) (*model.BoardState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.BoardState{Entries: map[string]*model.BoardEntry{}}, nil
		}
		return nil, err
	}
	var state model.BoardState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Entries == nil {
		state.Entries = map[string]*model.BoardEntry{}
	}
	return &state, nil
}

// SaveState writes the board to a JSON file.
func SaveState(filePath string, state *model.BoardState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

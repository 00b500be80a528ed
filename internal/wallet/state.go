package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"PowerWallet/internal/model"
)

// LoadState reads the wallet state from a JSON file. Returns a zero state if
// the file doesn't exist.
func LoadState(filePath string) (*model.WalletState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.WalletState{}, nil
		}
		return nil, err
	}
	var state model.WalletState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the wallet state to a JSON file via a temp file and
// rename.
func SaveState(filePath string, state *model.WalletState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}

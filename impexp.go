package portfolio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// this file contains functions to handle the import/export format.
// It should remain human readable, single file and be easy to merge into a store.

// ImportAssets reads assets from 'r' in the import/export format.
//
// The import format is a JSONL file, where each line is a JSON object
// representing an asset, see [Asset.MarshalJSON]. Each asset is validated.
func ImportAssets(r io.Reader) ([]Asset, error) {
	var assets []Asset
	seen := make(map[string]int)

	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var a Asset
		if err := json.Unmarshal(line, &a); err != nil {
			return nil, fmt.Errorf("line %d: cannot parse asset: %w", n, err)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if prev, ok := seen[a.ID]; ok {
			return nil, fmt.Errorf("line %d: asset %q is already defined on line %d", n, a.ID, prev)
		}
		seen[a.ID] = n
		assets = append(assets, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read assets: %w", err)
	}
	return assets, nil
}

// ExportAssets writes assets to 'w' in the import/export format.
func ExportAssets(w io.Writer, assets []Asset) error {
	for _, a := range assets {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("cannot marshal asset %q: %w", a.ID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write asset format: %w", err)
		}
	}
	return nil
}

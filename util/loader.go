// Package util - Workload corpus loading helpers.
package util

import (
	"os"
	"path/filepath"
	"sort"
)

// PayloadFile represents one raw workload payload on disk.
type PayloadFile struct {
	// Path is the path to the payload file.
	Path string
	// Data is the raw bytes of the payload file.
	Data []byte
}

// LoadDirectoryPayloads reads all payload files (.bin, .dat, .payload) from a
// directory, sorted by file name so runs are reproducible.
func LoadDirectoryPayloads(dir string) ([]PayloadFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var payloads []PayloadFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		switch filepath.Ext(file.Name()) {
		case ".bin", ".dat", ".payload":
			path := filepath.Join(dir, file.Name())
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				return nil, readErr
			}
			payloads = append(payloads, PayloadFile{Path: path, Data: data})
		}
	}

	sort.Slice(payloads, func(i, j int) bool {
		return payloads[i].Path < payloads[j].Path
	})

	return payloads, nil
}

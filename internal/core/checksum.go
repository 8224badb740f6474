package core

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// fileChecksum returns the SHA-256 of a file with a "sha256:" prefix.
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "sha256:" + fmt.Sprintf("%x", h.Sum(nil)), nil
}

// PluginStatus is the on-disk state of an installed plugin.
type PluginStatus string

const (
	StatusOK       PluginStatus = "ok"
	StatusModified PluginStatus = "modified"
	StatusMissing  PluginStatus = "missing"
)

// Verify compares an installed plugin's file against the checksum taken
// at install time. Entries recorded without a checksum are reported ok.
func (p *InstalledPlugin) Verify() PluginStatus {
	sum, err := fileChecksum(p.InstalledPath)
	if err != nil {
		return StatusMissing
	}
	if p.Checksum != "" && p.Checksum != sum {
		return StatusModified
	}
	return StatusOK
}

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
)

// DigestFile returns the sha256 digest of a file as "sha256:<hex>"
func DigestFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to open file %s", path)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", errors.Wrapf(err, "Failed to read file %s", path)
	}
	return "sha256:" + hex.EncodeToString(hasher.Sum(nil)), nil
}

// Digest returns the sha256 digest of data
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

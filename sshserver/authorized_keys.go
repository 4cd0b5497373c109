package sshserver

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"
)

// AuthorizedKeys checks public keys against an OpenSSH authorized_keys file.
// The file is read on every check so edits apply to the next login.
type AuthorizedKeys struct {
	Path string
}

// Contains reports whether key is listed in the file.
func (a AuthorizedKeys) Contains(key ssh.PublicKey) (bool, error) {
	if strings.TrimSpace(a.Path) == "" {
		return false, errors.New("authorized keys path is required")
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return false, fmt.Errorf("read authorized keys: %w", err)
	}
	keys, err := ParseAuthorizedKeys(data)
	if err != nil {
		return false, err
	}
	for _, candidate := range keys {
		if gliderssh.KeysEqual(candidate, key) {
			return true, nil
		}
	}
	return false, nil
}

// ParseAuthorizedKeys parses every key of an authorized_keys document.
// Blank lines and comments are skipped.
func ParseAuthorizedKeys(data []byte) ([]ssh.PublicKey, error) {
	var keys []ssh.PublicKey
	for i, raw := range bytes.Split(data, []byte("\n")) {
		line := bytes.TrimSpace(raw)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		key, _, _, _, err := ssh.ParseAuthorizedKey(line)
		if err != nil {
			return nil, fmt.Errorf("parse authorized keys line %d: %w", i+1, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

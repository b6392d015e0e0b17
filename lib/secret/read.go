// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"os"
)

// ReadEnvValue reads the value of key from an env-style file at path.
//
// The file is scanned for a line of the form KEY=value; surrounding
// whitespace and a single pair of matching quotes are removed from the
// value. A file with no '=' on any line is treated as holding the bare
// secret. The returned buffer must be closed by the caller.
func ReadEnvValue(path, key string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer Zero(data)
	return ParseEnvValue(data, key)
}

// ParseEnvValue is ReadEnvValue over bytes already in memory. data is
// not modified; the caller zeroes it.
func ParseEnvValue(data []byte, key string) (*Buffer, error) {
	prefix := []byte(key + "=")
	sawAssignment := false

	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if bytes.IndexByte(line, '=') >= 0 {
			sawAssignment = true
		}
		if !bytes.HasPrefix(line, prefix) {
			continue
		}
		value := unquote(bytes.TrimSpace(line[len(prefix):]))
		if len(value) == 0 {
			return nil, fmt.Errorf("secret: %s is empty", key)
		}
		return NewFromBytes(append([]byte(nil), value...))
	}

	if sawAssignment {
		return nil, fmt.Errorf("secret: no %s= line found", key)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret: secret is empty")
	}
	return NewFromBytes(append([]byte(nil), trimmed...))
}

func unquote(value []byte) []byte {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}

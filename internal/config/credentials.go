package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Credentials authenticate against the remote gridded product.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Empty reports whether no username is set.
func (c Credentials) Empty() bool {
	return c.Username == ""
}

// LoadCredentials reads a credentials file. Both the toolbox INI layout
// ([credentials] with username= and password=) and a YAML mapping are
// accepted. A missing file is not an error. COPERNICUSMARINE_SERVICE_USERNAME and COPERNICUSMARINE_SERVICE_PASSWORD
// override the file's values when set.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Credentials{}, fmt.Errorf("read credentials file: %w", err)
		default:
			if creds, err = parseCredentials(data); err != nil {
				return Credentials{}, fmt.Errorf("parse credentials file: %w", err)
			}
		}
	}

	if v := os.Getenv("COPERNICUSMARINE_SERVICE_USERNAME"); v != "" {
		creds.Username = v
	}
	if v := os.Getenv("COPERNICUSMARINE_SERVICE_PASSWORD"); v != "" {
		creds.Password = v
	}
	return creds, nil
}

func parseCredentials(data []byte) (Credentials, error) {
	var creds Credentials
	if !isINI(data) {
		err := yaml.Unmarshal(data, &creds)
		return creds, err
	}

	f, err := ini.Load(data)
	if err != nil {
		return creds, err
	}
	sec := f.Section("credentials")
	creds.Username = sec.Key("username").String()
	creds.Password = sec.Key("password").String()
	return creds, nil
}

// isINI reports whether the first meaningful line is a section header.
func isINI(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		return strings.HasPrefix(line, "[")
	}
	return false
}

// Package wifi reads the hotspot credentials written by the installer.
package wifi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrNotConfigured      = errors.New("wifi credentials file not found")
	ErrInvalidCredentials = errors.New("wifi credentials incomplete")
)

type Credentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// Load reads path. Both ssid and password are required.
func Load(path string) (Credentials, error) {
	body, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNotConfigured
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read wifi credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode wifi credentials: %w", err)
	}
	if strings.TrimSpace(creds.SSID) == "" || creds.Password == "" {
		return Credentials{}, ErrInvalidCredentials
	}
	return creds, nil
}

// QRPayload renders the join string understood by phone cameras.
func (c Credentials) QRPayload() string {
	return "WIFI:T:WPA;S:" + escape(c.SSID) + ";P:" + escape(c.Password) + ";;"
}

var qrEscaper = strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, `:`, `\:`, `"`, `\"`)

func escape(v string) string {
	return qrEscaper.Replace(v)
}

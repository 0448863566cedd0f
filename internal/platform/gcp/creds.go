package gcp

import (
	"strings"

	"google.golang.org/api/option"
)

// ClientOptions prefers inline credentials JSON over a credentials file. With
// neither set the client falls back to application default credentials.
func ClientOptions(cfg ObjectStorageConfig) []option.ClientOption {
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	creds := strings.TrimSpace(cfg.CredentialsFile)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

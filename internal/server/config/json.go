package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/atlassist/internal/flagx"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, non-empty fields are copied into the runtime
// Config.
type JsonConfig struct {
	EndpointAddrHTTP     string `json:"endpoint_addr_http"`
	DatabaseDSN          string `json:"database_dsn"`
	FederatedSecretKey   string `json:"federated_secret_key"`
	SessionValidityHours int    `json:"session_validity_hours"`
	KeyBackend           string `json:"key_backend"`
	KeyFile              string `json:"key_file"`
	MemoryServiceURL     string `json:"memory_service_url"`
	DemoUserID           string `json:"demo_user_id"`
	S3RootUser           string `json:"s3_root_user"`
	S3RootPassword       string `json:"s3_root_password"`
	S3Bucket             string `json:"s3_bucket"`
	S3Region             string `json:"s3_region"`
	S3BaseEndpoint       string `json:"s3_base_endpoint"`
	S3KeyObject          string `json:"s3_key_object"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. When no flag is given, nothing
// is loaded. An unreadable or invalid file panics: the service must not
// start on a half-applied configuration.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIfNotEmpty := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setIfNotEmpty(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIfNotEmpty(&config.DatabaseDSN, c.DatabaseDSN)
	setIfNotEmpty(&config.FederatedSecretKey, c.FederatedSecretKey)
	setIfNotEmpty(&config.KeyBackend, c.KeyBackend)
	setIfNotEmpty(&config.KeyFile, c.KeyFile)
	setIfNotEmpty(&config.MemoryServiceURL, c.MemoryServiceURL)
	setIfNotEmpty(&config.DemoUserID, c.DemoUserID)
	setIfNotEmpty(&config.S3RootUser, c.S3RootUser)
	setIfNotEmpty(&config.S3RootPassword, c.S3RootPassword)
	setIfNotEmpty(&config.S3Bucket, c.S3Bucket)
	setIfNotEmpty(&config.S3Region, c.S3Region)
	setIfNotEmpty(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setIfNotEmpty(&config.S3KeyObject, c.S3KeyObject)

	if c.SessionValidityHours > 0 {
		config.SessionValidity = time.Duration(c.SessionValidityHours) * time.Hour
	}
}

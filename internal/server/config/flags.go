package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/atlassist/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   federated-token HMAC secret key
//	-t int      session validity, hours
//	-k string   key backend ("file" or "s3")
//	-f string   key file path (file backend)
//	-m string   memory-service cache-eviction URL
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-k", "-f", "-m", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.FederatedSecretKey, "s", config.FederatedSecretKey, "federated-token secret key")

	sessionValidityHours := fs.Int("t", int(config.SessionValidity.Hours()), "session validity (in hours)")

	fs.StringVar(&config.KeyBackend, "k", config.KeyBackend, "key backend: file or s3")
	fs.StringVar(&config.KeyFile, "f", config.KeyFile, "encryption key file path")
	fs.StringVar(&config.MemoryServiceURL, "m", config.MemoryServiceURL, "memory-service eviction URL")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidity = time.Duration(*sessionValidityHours) * time.Hour
}

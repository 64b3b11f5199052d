package config

import (
	"fmt"
	"strings"
	"text/template"
)

var configFileTmpl = template.Must(template.New("config").Parse(`# gitgate server configurations.

# The name of the server.
name: "{{ .Name }}"

# The HTTP server configuration.
http:
  # The address on which the HTTP server will listen.
  listen_addr: "{{ .HTTP.ListenAddr }}"

  # The path to the TLS private key.
  tls_key_path: "{{ .HTTP.TLSKeyPath }}"

  # The path to the TLS certificate.
  tls_cert_path: "{{ .HTTP.TLSCertPath }}"

  # The public URL of the HTTP server.
  # This is the address clients use to clone repositories.
  public_url: "{{ .HTTP.PublicURL }}"

# The stats server configuration.
stats:
  # The address on which the stats server will listen.
  listen_addr: "{{ .Stats.ListenAddr }}"

# The database configuration.
db:
  # The database driver to use, "sqlite" or "postgres".
  driver: "{{ .DB.Driver }}"
  # The database data source name.
  data_source: "{{ .DB.DataSource }}"
  # Whether the instance is in read-only maintenance mode.
  read_only: {{ .DB.ReadOnly }}

# Git LFS configuration.
lfs:
  # Enable Git LFS.
  enabled: {{ .LFS.Enabled }}
  # Object storage bucket URL for LFS objects. Leave empty to store objects
  # under the data path on the local filesystem.
  storage_url: "{{ .LFS.StorageURL }}"
  # Always proxy LFS downloads through the gateway.
  proxy_download: {{ .LFS.ProxyDownload }}

# Authentication configuration.
auth:
  # Accept HTTP Basic credentials.
  basic_enabled: {{ .Auth.BasicEnabled }}
  # Accept SPNEGO/Kerberos tickets.
  kerberos_enabled: {{ .Auth.KerberosEnabled }}
  # Allow unauthenticated downloads from public containers.
  anonymous_enabled: {{ .Auth.AnonymousEnabled }}
  # The Basic username that marks CI job token credentials.
  ci_job_user: "{{ .Auth.CIJobUser }}"
  # The realm reported in authentication challenges.
  realm: "{{ .Auth.Realm }}"

# The log configuration.
log:
  # The log format to use, "json", "logfmt", or "text".
  format: "{{ .Log.Format }}"
  # The time format for the log "timestamp" field.
  time_format: "{{ .Log.TimeFormat }}"
`))

// newConfigFile returns the YAML contents for the given config, used to
// write the initial config file to disk.
func newConfigFile(cfg *Config) string {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var b strings.Builder
	if err := configFileTmpl.Execute(&b, cfg); err != nil {
		// The template only touches cfg fields, it cannot fail on a
		// non-nil config.
		panic(fmt.Sprintf("render config file: %v", err))
	}

	return b.String()
}

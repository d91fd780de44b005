// Package config loads the dev CLI's crawl configuration: flags parsed
// by kong, optionally overridden by a local YAML file, matching the
// teacher-adjacent layering block-cachew's cmd/cachewd uses for its own
// flags-plus-file configuration.
package config

import (
	"os"

	"github.com/alecthomas/errors"
	"gopkg.in/yaml.v3"

	"github.com/asukhodko/git-datasource/internal/gitrepo"
)

// File is the optional local YAML override file shape. Any field left
// zero-valued does not override the corresponding CLI flag.
type File struct {
	RepoURL       string   `yaml:"repo_url"`
	Branch        string   `yaml:"branch"`
	Subdir        string   `yaml:"subdir"`
	Extensions    []string `yaml:"extensions"`
	AccessToken   string   `yaml:"access_token"`
	SSHPrivateKey string   `yaml:"ssh_private_key"`
	CacheDir      string   `yaml:"cache_dir"`
	StatePath     string   `yaml:"state_path"`
	LogJSON       *bool    `yaml:"log_json"`
	LogLevel      string   `yaml:"log_level"`
}

// LoadFile reads and parses a YAML config file at path.
func LoadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, errors.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, errors.Errorf("parsing config file %s: %w", path, err)
	}
	return f, nil
}

// Merged is the fully resolved configuration the CLI hands to crawl.Config
// and the Crawler's supporting infrastructure.
type Merged struct {
	RepoURL       string
	Branch        string
	Subdir        string
	Extensions    []string
	AccessToken   string
	SSHPrivateKey string
	CacheDir      string
	StatePath     string
	LogJSON       bool
	LogLevel      string
}

// Merge layers f over flags: any non-zero File field wins over the
// corresponding flag value.
func Merge(flags Merged, f File) Merged {
	out := flags
	if f.RepoURL != "" {
		out.RepoURL = f.RepoURL
	}
	if f.Branch != "" {
		out.Branch = f.Branch
	}
	if f.Subdir != "" {
		out.Subdir = f.Subdir
	}
	if len(f.Extensions) > 0 {
		out.Extensions = f.Extensions
	}
	if f.AccessToken != "" {
		out.AccessToken = f.AccessToken
	}
	if f.SSHPrivateKey != "" {
		out.SSHPrivateKey = f.SSHPrivateKey
	}
	if f.CacheDir != "" {
		out.CacheDir = f.CacheDir
	}
	if f.StatePath != "" {
		out.StatePath = f.StatePath
	}
	if f.LogJSON != nil {
		out.LogJSON = *f.LogJSON
	}
	if f.LogLevel != "" {
		out.LogLevel = f.LogLevel
	}
	return out
}

// Credentials extracts the gitrepo.Credentials this configuration carries.
func (m Merged) Credentials() gitrepo.Credentials {
	return gitrepo.Credentials{AccessToken: m.AccessToken, SSHPrivateKey: m.SSHPrivateKey}
}

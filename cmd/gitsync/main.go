// Command gitsync is a development harness for exercising the git
// datasource outside the host plugin runtime: it drives a crawl against a
// real repository and prints the emitted records as JSON, or validates a
// credential's shape without touching any repository.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/asukhodko/git-datasource/internal/config"
	"github.com/asukhodko/git-datasource/internal/crawl"
	"github.com/asukhodko/git-datasource/internal/credcheck"
	"github.com/asukhodko/git-datasource/internal/model"
	"github.com/asukhodko/git-datasource/internal/obslog"
	"github.com/asukhodko/git-datasource/internal/obsmetrics"
	"github.com/asukhodko/git-datasource/internal/pathutil"
	"github.com/asukhodko/git-datasource/internal/statestore"
)

type crawlCmd struct {
	RepoURL       string `help:"Repository URL to crawl." required:""`
	Branch        string `help:"Branch to crawl." default:"main"`
	Subdir        string `help:"Restrict crawling to this subdirectory."`
	Extensions    string `help:"Comma-separated list of file extensions to include (e.g. .md,.go)."`
	AccessToken   string `help:"HTTPS access token." env:"GITSYNC_ACCESS_TOKEN"`
	SSHPrivateKey string `help:"SSH private key (PEM, literal newlines or \\n escapes)." env:"GITSYNC_SSH_KEY"`
	CacheDir      string `help:"Local git cache directory." default:"/tmp/git_datasource_cache"`
	StatePath     string `help:"Path to a bbolt state file. Empty uses an in-memory store for this run only."`
	Config        string `help:"Optional local YAML config file overriding the flags above."`
	LogJSON       bool   `help:"Emit JSON logs instead of console logs."`
	LogLevel      string `help:"Log level: debug, info, warn, error." default:"info"`
}

func (c *crawlCmd) Run() error {
	flags := config.Merged{
		RepoURL:       c.RepoURL,
		Branch:        c.Branch,
		Subdir:        c.Subdir,
		Extensions:    pathutil.ParseExtensions(c.Extensions),
		AccessToken:   c.AccessToken,
		SSHPrivateKey: c.SSHPrivateKey,
		CacheDir:      c.CacheDir,
		StatePath:     c.StatePath,
		LogJSON:       c.LogJSON,
		LogLevel:      c.LogLevel,
	}

	merged := flags
	if c.Config != "" {
		f, err := config.LoadFile(c.Config)
		if err != nil {
			return err
		}
		merged = config.Merge(flags, f)
	}

	log, err := obslog.NewLogger(merged.LogJSON, merged.LogLevel)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(merged.StatePath)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := obsmetrics.NewCollector()

	crawler := crawl.NewCrawler(merged.CacheDir, store, log, metrics)
	cfg := crawl.Config{
		RepoURL:    merged.RepoURL,
		Branch:     merged.Branch,
		Subdir:     merged.Subdir,
		Extensions: merged.Extensions,
		Creds:      merged.Credentials(),
	}

	return crawler.Run(context.Background(), cfg, func(r model.Record) error {
		out, err := model.ToJSON(r)
		if err != nil {
			return err
		}
		fmt.Println(string(out)) //nolint:forbidigo
		return nil
	})
}

func openStore(path string) (statestore.Store, func(), error) {
	if path == "" {
		return statestore.NewMemoryStore(), func() {}, nil
	}
	bolt, err := statestore.OpenBoltStore(path)
	if err != nil {
		return nil, nil, err
	}
	return bolt, func() { _ = bolt.Close() }, nil
}

type checkCredentialsCmd struct {
	AccessToken   string `help:"HTTPS access token to validate." env:"GITSYNC_ACCESS_TOKEN"`
	SSHPrivateKey string `help:"SSH private key to validate." env:"GITSYNC_SSH_KEY"`
}

func (c *checkCredentialsCmd) Run() error {
	if err := credcheck.ValidateCredentials(c.AccessToken, c.SSHPrivateKey); err != nil {
		return err
	}
	fmt.Println("credentials OK") //nolint:forbidigo
	return nil
}

var cli struct {
	Crawl            crawlCmd            `cmd:"" help:"Crawl a repository and print emitted records as JSON."`
	CheckCredentials checkCredentialsCmd `cmd:"" help:"Validate the shape of a supplied credential."`
}

func main() {
	kctx := kong.Parse(&cli, kong.Name("gitsync"), kong.Description("Development harness for the git datasource."))
	if err := kctx.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err) //nolint:forbidigo
		os.Exit(1)
	}
}

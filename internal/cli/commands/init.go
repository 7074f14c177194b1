package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/movierank/internal/cli/config"
	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const starterHeader = `# movierank configuration.
# Relative paths are resolved against the directory of this file.
# The TMDb key is read from tmdb.api_key, MOVIERANK_TMDB__API_KEY or
# TMDB_API_KEY; prefer the environment over committing it here.

`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new movierank project",
		Long: `Initialize a movierank project with a movierank.yaml holding every
default and the data/ and output/ directories the defaults point at.`,
		Example: `  # Initialize in current directory
  movierank init

  # Initialize in a new directory
  movierank init my-ranking

  # Force overwrite existing config
  movierank init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg, err := getConfig()
			if err != nil {
				return err
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// starterDirs are created next to the config file.
var starterDirs = []string{
	"data/TMDB-popularity",
	"data/TMDB-revenue",
	"data/IMDB-rating",
	"output",
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	content, err := starterConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	r.StatusLine(config.ConfigFileName, "success", "")

	for _, d := range starterDirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
		r.StatusLine(d+"/", "success", "")
	}

	r.Println("")
	r.Success("movierank project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  movierank fetch popularity   Download popular movies (needs TMDB_API_KEY)")
	r.Println("  movierank clean popularity   Deduplicate the popularity export")
	r.Println("  movierank fetch revenue      Download budget and revenue")
	r.Println("  movierank clean revenue      Deduplicate the revenue export")
	r.Println("  movierank imdb               Build ratings from the IMDb dumps")
	r.Println("  movierank run                Rank movies")

	return nil
}

// starterConfig renders the defaults as YAML.
func starterConfig() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(starterHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.Starter()); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", config.ConfigFileName, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

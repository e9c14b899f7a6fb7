package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewInitCmd builds and returns the 'init' cobra command.
func NewInitCmd() *cobra.Command {
	var (
		outputFile string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default rules and policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFile == "-" {
				return writeDefaultConfig(cmd.OutOrStdout())
			}
			return runInit(outputFile, force)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", ConfigName+".yaml", "Config file to write (- for stdout)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// runInit is the entry point for the init command.
func runInit(outputPath string, force bool) error {
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", outputPath)
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file %q: %w", outputPath, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := writeDefaultConfig(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	log.Info().Str("path", outputPath).Msg("config written")
	return nil
}

func writeDefaultConfig(w io.Writer) error {
	cfg := DefaultConfigFile()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshalling yaml: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

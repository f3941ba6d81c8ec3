package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Setting keys shared by flags, the config file and PDFCONV_* variables.
const (
	keyServer       = "server"
	keyHistoryStore = "history-store"
	keyStateDir     = "state-dir"
	keyOutputDir    = "output-dir"
	keyMsgpack      = "msgpack"
	keyLogLevel     = "log-level"
)

func newRootCommand() *cobra.Command {
	v := viper.New()
	var configFlag string

	ctx := newCommandContext(v)

	rootCmd := &cobra.Command{
		Use:   "pdfconv",
		Short: "Convert PDF files to Word documents",
		Long: `pdfconv uploads PDF files to a PDF to Word converter server as one batch,
records every outcome in a local history and downloads converted documents.

Settings come from flags, PDFCONV_* environment variables or pdfconv.yaml in
the working directory or ~/.config/pdfconv.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, configFlag)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "config file (default: ./pdfconv.yaml or ~/.config/pdfconv/pdfconv.yaml)")
	flags.String(keyServer, "http://localhost:3000", "converter server base URL")
	flags.String(keyHistoryStore, "file", "history backend: file or sqlite")
	flags.String(keyStateDir, defaultStateDir(), "directory holding the local history")
	flags.String(keyOutputDir, ".", "directory downloads are saved to")
	flags.Bool(keyMsgpack, false, "request msgpack responses from the server")
	flags.String(keyLogLevel, "warn", "log level: debug, info, warn, error")
	_ = v.BindPFlags(flags)

	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newRecentCommand(ctx))
	rootCmd.AddCommand(newDownloadCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pdfconv")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pdfconv"))
		}
	}

	v.SetEnvPrefix("PDFCONV")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if cfgFile == "" && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pdfconv")
	}
	return filepath.Join(home, ".local", "share", "pdfconv")
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of pdfconv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pdfconv %s\n", version)
		},
	}
}

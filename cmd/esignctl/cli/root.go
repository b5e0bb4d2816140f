// Package cli implements esignctl, the operator tool for API keys, staff
// tokens, and schema migrations.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esign.backend/internal/config"
	domainerrors "esign.backend/internal/domain/errors"
)

var (
	loadDotenv = godotenv.Load
	loadFile   = config.LoadFile
	loadEnv    = config.Load
)

const (
	outputText = "text"
	outputJSON = "json"
)

// Execute creates the root command tree and runs it.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "esignctl",
		Short: "Operate the e-sign backend",
		Long: `esignctl manages the e-sign backend from the command line: API keys for
dealer and customer integrations, short-lived staff tokens, and schema migrations.

Connection settings come from the same environment variables the server reads,
optionally layered over a YAML file passed with --config.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = loadDotenv()
			output := strings.ToLower(v.GetString("output"))
			if output != outputText && output != outputJSON {
				return fmt.Errorf("unknown output format %q (want text or json)", output)
			}
			return nil
		},
	}

	cmd.PersistentFlags().String("config", "", "YAML config file layered under the environment")
	cmd.PersistentFlags().StringP("output", "o", outputText, "output format: text or json")
	_ = v.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("output", cmd.PersistentFlags().Lookup("output"))
	v.SetEnvPrefix("ESIGNCTL")
	v.AutomaticEnv()

	s := &session{viper: v}
	cmd.AddCommand(newApiKeyCmd(s))
	cmd.AddCommand(newTokenCmd(s))
	cmd.AddCommand(newMigrateCmd(s))

	return cmd
}

// session carries the resolved flags into subcommands
type session struct {
	viper *viper.Viper
}

func (s *session) config() (*config.Config, error) {
	if path := s.viper.GetString("config"); path != "" {
		return loadFile(path)
	}
	return loadEnv(), nil
}

func (s *session) jsonOutput() bool {
	return strings.EqualFold(s.viper.GetString("output"), outputJSON)
}

func (s *session) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// failed reports client-side problems by their message and keeps the cause
// of anything else for the operator.
func failed(action string, err error) error {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) && appErr.Status < 500 {
		return fmt.Errorf("%s: %s", action, appErr.Message)
	}
	if appErr != nil && appErr.Err != nil {
		return fmt.Errorf("%s: %w", action, appErr.Err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kyledavis/g3/internal/platform/logging"
	"github.com/kyledavis/g3/internal/verify"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var (
	envelopeWorkingDir string
	envelopeSessionDir string
	envelopeFactsInput string
	envelopePath       string
	envelopeQueryPath  string
)

var envelopeCmd = &cobra.Command{
	Use:   "envelope",
	Short: "Write, verify, and inspect action envelopes",
	Long:  `envelope submits facts about completed work, runs them through a rulespec, and mints or checks the resulting verification token.`,
}

var envelopeWriteCmd = &cobra.Command{
	Use:   "write-envelope",
	Short: "Submit facts and run verification (write_envelope)",
	Run: func(cmd *cobra.Command, args []string) {
		body := envelopeFactsInput
		if body == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "write-envelope: read stdin: %v\n", err)
				osExit(1)
				return
			}
			body = string(data)
		}

		logger, err := logging.New()
		if err != nil {
			fmt.Fprintf(os.Stderr, "write-envelope: init logger: %v\n", err)
			osExit(1)
			return
		}
		defer logger.Sync()

		paths := verify.SessionPaths{WorkingDir: envelopeWorkingDir, SessionLogsDir: envelopeSessionDir}
		result, err := verify.WriteEnvelope(paths, body, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "write-envelope: %v\n", err)
			osExit(1)
			return
		}

		fmt.Println(result.Summary)
		if result.Stamped {
			fmt.Println("envelope stamped with a verification token")
		}
	},
}

var envelopeVerifyTokenCmd = &cobra.Command{
	Use:   "verify-token",
	Short: "Check an envelope's verified token against the keyed MAC",
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(envelopePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "verify-token: read envelope: %v\n", err)
			osExit(1)
			return
		}
		envelope, err := verify.ParseEnvelope(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "verify-token: %v\n", err)
			osExit(1)
			return
		}
		if envelope.Verified == "" {
			fmt.Println("envelope carries no verification token")
			osExit(1)
			return
		}

		rulespecData, err := os.ReadFile(filepath.Join(envelopeWorkingDir, "analysis", "rulespec.yaml"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "verify-token: read rulespec: %v\n", err)
			osExit(1)
			return
		}
		rulespec, err := verify.ParseRulespec(rulespecData)
		if err != nil {
			fmt.Fprintf(os.Stderr, "verify-token: %v\n", err)
			osExit(1)
			return
		}

		key, err := verify.LoadOrCreateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "verify-token: %v\n", err)
			osExit(1)
			return
		}

		ok, err := verify.VerifyToken(key, envelope, rulespec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "verify-token: %v\n", err)
			osExit(1)
			return
		}
		if ok {
			fmt.Println("token valid")
		} else {
			fmt.Println("token invalid")
			osExit(1)
		}
	},
}

var envelopeQueryCmd = &cobra.Command{
	Use:   "query <path>",
	Short: "Query an envelope's facts with a gjson path expression",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(envelopeQueryPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "envelope query: read envelope: %v\n", err)
			osExit(1)
			return
		}
		envelope, err := verify.ParseEnvelope(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "envelope query: %v\n", err)
			osExit(1)
			return
		}

		jsonFacts, err := json.Marshal(envelope.Facts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "envelope query: %v\n", err)
			osExit(1)
			return
		}

		result := gjson.GetBytes(jsonFacts, args[0])
		if !result.Exists() {
			fmt.Println("null")
			return
		}
		if result.IsObject() || result.IsArray() {
			fmt.Println(string(pretty.Pretty([]byte(result.Raw))))
			return
		}
		fmt.Println(result.String())
	},
}

func init() {
	envelopeCmd.PersistentFlags().StringVar(&envelopeWorkingDir, "working-dir", ".", "Repository working directory")

	envelopeWriteCmd.Flags().StringVar(&envelopeSessionDir, "session-logs", filepath.Join(".g3", "logs"), "Session log directory")
	envelopeWriteCmd.Flags().StringVar(&envelopeFactsInput, "facts", "", "Facts YAML; read from stdin if omitted")

	envelopeVerifyTokenCmd.Flags().StringVar(&envelopePath, "envelope", filepath.Join(".g3", "logs", "envelope.yaml"), "Path to the envelope file")

	envelopeQueryCmd.Flags().StringVar(&envelopeQueryPath, "envelope", filepath.Join(".g3", "logs", "envelope.yaml"), "Path to the envelope file")

	envelopeCmd.AddCommand(envelopeWriteCmd, envelopeVerifyTokenCmd, envelopeQueryCmd)
	rootCmd.AddCommand(envelopeCmd)
}

package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/screening-desk/internal/config"
	"github.com/jonathan/screening-desk/internal/server"
	"github.com/jonathan/screening-desk/internal/types"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator sign-in token",
	Long:  "Signs an operator token with JWT_SECRET. With --base-url a sign-in link for the web server is printed instead of the bare token.",
	RunE:  runToken,
}

var (
	tokenOperator string
	tokenHours    int
	tokenBaseURL  string
)

func init() {
	tokenCmd.Flags().StringVarP(&tokenOperator, "operator", "o", "", "Operator name or email (required)")
	tokenCmd.Flags().IntVar(&tokenHours, "hours", 0, "Token lifetime in hours (default JWT_EXPIRATION_HOURS)")
	tokenCmd.Flags().StringVar(&tokenBaseURL, "base-url", "", "Web server URL to build a sign-in link for")

	if err := tokenCmd.MarkFlagRequired("operator"); err != nil {
		panic(fmt.Sprintf("failed to mark operator flag as required: %v", err))
	}

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	req := types.TokenRequest{Operator: strings.TrimSpace(tokenOperator), Hours: tokenHours}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid token request: %w", err)
	}

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to load JWT config: %w", err)
	}

	token, err := server.NewJWTService(jwtCfg).GenerateToken(req.Operator, time.Duration(req.Hours)*time.Hour)
	if err != nil {
		return err
	}

	if tokenBaseURL == "" {
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	}
	link := strings.TrimRight(tokenBaseURL, "/") + "/auth/session?token=" + url.QueryEscape(token)
	fmt.Fprintln(cmd.OutOrStdout(), link)
	return nil
}

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var otpCmd = &cobra.Command{
	Use:   "otp",
	Short: "Show current dashboard token",
	Long:  `Show the current dashboard access token and login URL (for when you've scrolled past it).`,
	RunE:  runOTP,
}

func init() {
	rootCmd.AddCommand(otpCmd)
}

func runOTP(cmd *cobra.Command, args []string) error {
	tokenFile := getTokenFilePath()

	data, err := os.ReadFile(tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no server running (token file not found)\nStart the server with: ratechart serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return fmt.Errorf("token file is empty")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Current dashboard token: %s\n", token)
	fmt.Fprintf(out, "Dashboard: http://localhost:%d/dashboard?token=%s\n", port, token)
	return nil
}

// getTokenFilePath returns the path to the token file shared by serve and otp.
func getTokenFilePath() string {
	return getEnvOrDefault("RC_TOKEN_FILE", ".ratechart-token")
}

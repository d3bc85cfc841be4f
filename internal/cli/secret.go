package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errEmptySecret = errors.New("secret cannot be empty")

// getSecret returns the shared secret from flag, env, or the command's input.
// A terminal is prompted without echo; anything else is read as one line.
func getSecret(cmd *cobra.Command) (string, error) {
	// 1. Command line flag
	if secret != "" {
		return secret, nil
	}

	// 2. Environment variable
	if env := os.Getenv(SecretEnv); env != "" {
		return env, nil
	}

	// 3. Prompt or stdin
	return ReadSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// ReadSecret prompts for a secret without echo when in is a terminal and
// otherwise reads one line. Surrounding whitespace is trimmed.
func ReadSecret(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok {
		fd := int(f.Fd())
		if term.IsTerminal(fd) {
			fmt.Fprint(prompt, "Enter relay secret: ")
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(prompt)
			if err != nil {
				return "", fmt.Errorf("failed to read secret: %w", err)
			}
			return checkSecret(string(b))
		}
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return checkSecret(line)
}

func checkSecret(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errEmptySecret
	}
	return s, nil
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:2] + "..." + s[len(s)-2:]
}

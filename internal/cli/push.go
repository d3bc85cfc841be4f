package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/paritytech/push-release/pkg/client"
)

func createReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release <tag> <commit>",
		Short: "Announce a tagged release",
		Long: `Announce a tagged release to the relay.

The relay reads the release metadata at the commit and registers the release
on chain when its track is enabled.

EXAMPLES:
  push-release release v1.7.13 8b749367fd5fea897cee98bd892fff1ce90f8260

  # In CI, with the secret from the environment
  PUSH_RELEASE_SECRET=... push-release release "$CI_COMMIT_TAG" "$CI_COMMIT_SHA"
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			res, err := c.PushRelease(cmd.Context(), args[0], args[1])
			return report(cmd.OutOrStdout(), res, err)
		},
	}

	return cmd
}

func createBuildCmd() *cobra.Command {
	var build client.Build

	cmd := &cobra.Command{
		Use:   "build <tag> <platform>",
		Short: "Register a platform binary",
		Long: `Register the checksum and download location of a built binary.

EXAMPLES:
  push-release build v1.7.13 x86_64-unknown-linux-gnu \
    --commit 8b749367fd5fea897cee98bd892fff1ce90f8260 \
    --filename parity \
    --sha3 9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			res, err := c.PushBuild(cmd.Context(), args[0], args[1], build)
			return report(cmd.OutOrStdout(), res, err)
		},
	}

	cmd.Flags().StringVar(&build.Commit, "commit", "", "commit hash the binary was built from")
	cmd.Flags().StringVar(&build.Filename, "filename", "", "binary file name")
	cmd.Flags().StringVar(&build.SHA3, "sha3", "", "sha3 checksum of the binary")
	_ = cmd.MarkFlagRequired("commit")
	_ = cmd.MarkFlagRequired("filename")
	_ = cmd.MarkFlagRequired("sha3")

	return cmd
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	s, err := getSecret(cmd)
	if err != nil {
		return nil, err
	}
	return client.New(getServer(), s), nil
}

func report(out io.Writer, res *client.Result, err error) error {
	if err != nil {
		return err
	}
	if res.Declined() {
		fmt.Fprintf(out, "declined: %s\n", res.Message)
		return nil
	}
	fmt.Fprintln(out, res.Message)
	return nil
}

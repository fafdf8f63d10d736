package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
	"github.com/sakif/portfolio/internal/service"
)

// resolvePath accepts a content key ("site") or a repository path.
func resolvePath(arg string) string {
	if key, ok := model.ParseKey(arg); ok {
		return key.Path()
	}
	return arg
}

func newGetCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <key|path>",
		Short: "Print a content document or download a file",
		Long: `Print a content document (site, seo, home, about, projects, resume) as
indented JSON, or download any other file by its repository path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				data []byte
				path string
			)
			if key, ok := model.ParseKey(args[0]); ok {
				path = key.Path()
				raw, sha, err := a.content.ReadRaw(ctx, path)
				if err != nil {
					return err
				}
				if data, err = service.EncodeDocument(raw); err != nil {
					return err
				}
				defer status(cmd, "%s @ %s", path, color.YellowString(sha))
			} else {
				path = args[0]
				var err error
				if data, err = a.content.ReadBinary(ctx, path); err != nil {
					return err
				}
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			status(cmd, "wrote %s (%d bytes) to %s", path, len(data), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newPutCmd(a *app) *cobra.Command {
	var message, sha string

	cmd := &cobra.Command{
		Use:   "put <key> [file]",
		Short: "Validate and commit a content document",
		Long: `Validate a JSON document against the schema for <key> and commit it.
The document is read from file, or from stdin when file is "-" or omitted.

With --sha the commit only succeeds if the stored revision still matches.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := model.ParseKey(args[0])
			if !ok {
				return fmt.Errorf("unknown key %q (want one of %v)", args[0], model.Keys)
			}

			source := "-"
			if len(args) == 2 {
				source = args[1]
			}
			raw, err := readSource(cmd.InOrStdin(), source)
			if err != nil {
				return err
			}

			newSHA, err := a.content.SaveDocument(cmd.Context(), key, raw, message, sha)
			if err != nil {
				return err
			}
			status(cmd, "committed %s @ %s", key.Path(), color.YellowString(newSHA))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message (default \"Update <key>\")")
	cmd.Flags().StringVar(&sha, "sha", "", "expected current revision")
	return cmd
}

func newUploadCmd(a *app) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "upload <path> <file>",
		Short: "Commit a binary asset",
		Long:  "Commit a binary asset. <path> must be one of: " + strings.Join(model.WritableAssets, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSource(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}

			sha, err := a.content.UploadAsset(cmd.Context(), args[0], data, message)
			if err != nil {
				return err
			}
			status(cmd, "uploaded %s (%d bytes) @ %s", args[0], len(data), color.YellowString(sha))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message (default \""+service.DefaultAssetMessage+"\")")
	return cmd
}

func newLogCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log <key|path>",
		Short: "List the commits that touched a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, ok := a.store.(repository.HistoryReader)
			if !ok {
				return fmt.Errorf("the configured store does not keep history")
			}

			commits, err := history.History(cmd.Context(), resolvePath(args[0]), limit)
			if err != nil {
				return err
			}
			if len(commits) == 0 {
				status(cmd, "no commits for %s", resolvePath(args[0]))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, c := range commits {
				id := c.ID
				if len(id) > 8 {
					id = id[:8]
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n",
					color.YellowString(id),
					c.CreatedAt.Local().Format("2006-01-02 15:04"),
					c.Message,
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash to use as ADMIN_PASSWORD",
		Long: `Print a bcrypt hash of password (or of the first line of stdin) that can be
stored in ADMIN_PASSWORD instead of the plain-text password.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"store": "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return fmt.Errorf("password is empty")
			}

			hash, err := auth.NewPasswordService().Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// readSource reads a file, or stdin for "-".
func readSource(stdin io.Reader, source string) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(source)
}

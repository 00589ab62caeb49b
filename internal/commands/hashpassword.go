package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/klabast/wb-services/garden-planner/internal/app"
)

var errAborted = errors.New("aborted")

func newHashPasswordCommand(opts *rootOptions) *cobra.Command {
	var overwrite, insecureUnmask bool

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Create the auth file with an Argon2id password hash",
		Long: `Prompts for a username and password and writes "username:hash" to the
auth file (server.auth_file, GARDEN_SERVER_AUTH_FILE or --auth-file;
default auth.secret next to the binary) with mode 0400.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.AuthFilePath(opts.v.GetString("server.auth_file"))
			if err != nil {
				return err
			}
			p := &prompter{
				in:     bufio.NewReader(cmd.InOrStdin()),
				out:    cmd.OutOrStdout(),
				masked: !insecureUnmask,
			}
			return hashPassword(p, path, overwrite)
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing auth file without asking")
	cmd.Flags().BoolVar(&insecureUnmask, "insecure-unmask-password", false, "Show password as plain text (INSECURE!)")
	return cmd
}

func hashPassword(p *prompter, path string, overwrite bool) error {
	username, err := p.line("Enter username: ")
	if err != nil {
		return fmt.Errorf("error reading username: %w", err)
	}
	if username == "" {
		return errors.New("username cannot be empty")
	}

	if !p.masked {
		fmt.Fprintln(p.out, "⚠️  WARNING: Password will be visible on screen!")
	}
	password, err := p.password("Enter password:   ")
	if err != nil {
		return fmt.Errorf("error reading password: %w", err)
	}
	confirm, err := p.password("Confirm password: ")
	if err != nil {
		return fmt.Errorf("error reading password confirmation: %w", err)
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	err = app.CreateAuthFile(path, username, password, overwrite)
	if errors.Is(err, app.ErrAuthFileExists) {
		fmt.Fprintf(p.out, "Auth file already exists: %s\n", path)
		answer, rerr := p.line("Overwrite? (y/N): ")
		if rerr != nil {
			return rerr
		}
		if a := strings.ToLower(answer); a != "y" && a != "yes" {
			return errAborted
		}
		err = app.CreateAuthFile(path, username, password, true)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(p.out, "✅ Auth file created: %s (mode: 0400 read-only)\n", path)
	fmt.Fprintf(p.out, "   Username: %s\n", username)
	return nil
}

// prompter reads answers from in. Masked passwords are read from the
// terminal when stdin is one.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	masked bool
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) password(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !p.masked || !term.IsTerminal(fd) {
		return p.line(prompt)
	}
	return readPasswordWithMask(p.out, fd, prompt)
}

// readPasswordWithMask reads password input and displays asterisks
func readPasswordWithMask(out io.Writer, fd int, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Fallback to hidden input
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		return string(password), err
	}
	defer term.Restore(fd, oldState)

	var password []byte
	reader := bufio.NewReader(os.Stdin)
	for {
		char, _, err := reader.ReadRune()
		if err != nil {
			fmt.Fprint(out, "\r\n")
			return string(password), nil
		}

		switch char {
		case '\n', '\r':
			fmt.Fprint(out, "\r\n")
			return string(password), nil
		case 127, 8: // Backspace or Delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Fprint(out, "\b \b")
			}
		case 3: // Ctrl+C
			fmt.Fprint(out, "\r\n")
			return "", errAborted
		default:
			if char >= 32 && char <= 126 {
				password = append(password, byte(char))
				fmt.Fprint(out, "*")
			}
		}
	}
}

package collab

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PasswordReader reads a password from some source, without echoing it
// to the terminal when possible.
type PasswordReader interface {
	ReadPassword() (string, error)
}

// TerminalPrompt reads a password from the controlling terminal, falling
// back to reading a line from stdin when stdin is not a terminal (for
// example under test harnesses or when piped).
type TerminalPrompt struct {
	Prompt string
	Stdin  io.Reader
}

// NewTerminalPrompt builds a TerminalPrompt with the conventional prompt
// text and os.Stdin as the fallback reader.
func NewTerminalPrompt(prompt string) *TerminalPrompt {
	return &TerminalPrompt{Prompt: prompt, Stdin: os.Stdin}
}

func (p *TerminalPrompt) ReadPassword() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if _, err := fmt.Fprint(os.Stderr, p.Prompt); err != nil {
			return "", err
		}
		phrase, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", fmt.Errorf("collab: reading password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return string(phrase), nil
	}

	// Not a terminal: read one line from Stdin. Useful for scripted
	// invocations and tests.
	line, err := bufio.NewReader(p.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("collab: reading password from stdin: %w", err)
	}
	return trimNewline(line), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// CachingPasswordReader wraps a PasswordReader so the underlying prompt
// fires at most once, with the result reused on subsequent calls.
type CachingPasswordReader struct {
	Upstream PasswordReader
	cached   bool
	password string
}

func (r *CachingPasswordReader) ReadPassword() (string, error) {
	if !r.cached {
		pw, err := r.Upstream.ReadPassword()
		if err != nil {
			return "", err
		}
		r.password = pw
		r.cached = true
	}
	return r.password, nil
}

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/opencode-ai/promptpad/internal/templates"
	"github.com/opencode-ai/promptpad/internal/variables"
	"golang.org/x/term"
)

// IsNonInteractive reports whether prompts should be skipped and defaults used.
func IsNonInteractive() bool {
	if nonInteractive {
		return true
	}
	if _, ok := os.LookupEnv("PROMPTPAD_NON_INTERACTIVE"); ok {
		return true
	}
	if IsJSONOutput() || IsJSONLOutput() {
		return true
	}
	return !hasTTY()
}

// IsInteractive reports whether the session can prompt for user input.
func IsInteractive() bool {
	return !IsNonInteractive()
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// promptForEmpty asks for every slot that has no value. Each answer is a direct
// edit, so it is cached like a --var value. An empty answer leaves the slot empty.
func promptForEmpty(session *variables.Session, in io.Reader, out io.Writer) error {
	empty := templates.EmptySlots(session.Slots())
	if len(empty) == 0 {
		return nil
	}

	reader := bufio.NewReader(in)
	for _, name := range empty {
		fmt.Fprintf(out, "%s: ", name)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read value for %s: %w", name, err)
		}
		value := strings.TrimRight(line, "\r\n")
		if value != "" {
			session.SetValue(name, value)
		}
		if err == io.EOF {
			fmt.Fprintln(out)
			return nil
		}
	}
	return nil
}

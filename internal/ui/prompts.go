package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// AskYesNo prompts the user with a yes/no question.
// Returns true for yes (Y/y/empty when defaultYes), false otherwise.
func AskYesNo(prompt string, defaultYes bool) bool {
	if defaultYes {
		_, _ = fmt.Fprintf(Out, "  %s [Y/n] ", prompt)
	} else {
		_, _ = fmt.Fprintf(Out, "  %s [y/N] ", prompt)
	}

	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))

	if response == "" {
		return defaultYes
	}

	return response == "y" || response == "yes"
}

package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

func copyToClipboard(s string) error {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard: no clipboard utility found (install xclip, xsel or wl-clipboard)")
	}
	return clipboard.WriteAll(s)
}

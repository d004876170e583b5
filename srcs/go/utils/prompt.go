package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrDeclined = errors.New("declined by user")

// AskToProceed prints msg to w and waits for a yes/no answer on r.
// Anything other than y/yes is treated as no.
func AskToProceed(r io.Reader, w io.Writer, msg string) error {
	fmt.Fprintf(w, "%s\nProceed? (y/n) ", msg)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	}
	return ErrDeclined
}

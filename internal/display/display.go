// Package display renders generated images inline in the terminal using the
// kitty graphics protocol.
package display

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/manash/lumina/internal/dataurl"
)

const (
	escapeStart = "\x1b_G"
	escapeEnd   = "\x1b\\"
	chunkSize   = 4096
)

type Displayer struct {
	out     io.Writer
	enabled bool
}

// New creates a Displayer that emits graphics escapes only when out is a
// terminal.
func New(out io.Writer) *Displayer {
	enabled := false
	if f, ok := out.(*os.File); ok {
		enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Displayer{out: out, enabled: enabled}
}

// NewForced creates a Displayer that always emits, for testing and piping.
func NewForced(out io.Writer) *Displayer {
	return &Displayer{out: out, enabled: true}
}

func (d *Displayer) Enabled() bool {
	return d.enabled
}

// Display writes the image carried by a data URI to the terminal. It is a
// no-op when the output is not a terminal.
func (d *Displayer) Display(dataURI string) error {
	if !d.enabled {
		return nil
	}

	_, data, err := dataurl.DecodeBytes(dataURI)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	if err := d.writeImage(data); err != nil {
		return fmt.Errorf("failed to display image: %w", err)
	}
	_, err = fmt.Fprintln(d.out)
	return err
}

// writeImage transmits the image, chunked to the protocol's 4K payload limit.
func (d *Displayer) writeImage(data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)

	if len(encoded) <= chunkSize {
		_, err := fmt.Fprintf(d.out, "%sa=T,f=100,q=2;%s%s", escapeStart, encoded, escapeEnd)
		return err
	}

	for i := 0; len(encoded) > 0; i++ {
		n := chunkSize
		if n > len(encoded) {
			n = len(encoded)
		}
		chunk := encoded[:n]
		encoded = encoded[n:]

		var params string
		switch {
		case i == 0:
			params = "a=T,f=100,q=2,m=1"
		case len(encoded) == 0:
			params = "m=0"
		default:
			params = "m=1"
		}

		if _, err := fmt.Fprintf(d.out, "%s%s;%s%s", escapeStart, params, chunk, escapeEnd); err != nil {
			return err
		}
	}
	return nil
}

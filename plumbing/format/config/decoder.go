package config

import (
	"io"

	"github.com/go-git/gcfg"
)

// Decoder reads and decodes a git-config-format file from a stream.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode parses the whole input and populates cfg, reusing gcfg's INI
// parser and callback hook rather than hand-rolling a tokenizer: gcfg
// already understands git's quoting and continuation-line rules.
func (d *Decoder) Decode(cfg *Config) error {
	cb := func(section, subsection, key, value string, _ bool) error {
		switch {
		case subsection == "" && key == "":
			cfg.Section(section)
		case subsection != "" && key == "":
			cfg.Section(section).Subsection(subsection)
		default:
			cfg.AddOption(section, subsection, key, value)
		}
		return nil
	}
	return gcfg.ReadWithCallback(d.r, cb)
}

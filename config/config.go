// Package config is the typed view over the repository's on-disk
// config file (".vox/config"), backed by the raw section/option AST in
// plumbing/format/config the same way go-git's own config package
// layers a typed Config over its plumbing/format/config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"

	format "github.com/Niko256/vox/plumbing/format/config"
)

const fileName = "config"

const (
	coreSection   = "core"
	userSection   = "user"
	remoteSection = "remote"

	bareKey       = "bare"
	nameKey       = "name"
	emailKey      = "email"
	urlKey        = "url"
	fetchKey      = "fetch"
	defaultBranch = "defaultBranch"
)

// ErrRemoteNotFound is returned when a requested remote has no
// [remote "name"] section in the config file.
var ErrRemoteNotFound = errors.New("remote config not found")

// RemoteConfig is one [remote "name"] block.
type RemoteConfig struct {
	Name  string
	URL   string
	Fetch string
}

// Config is the repository's parsed configuration: identity
// (user.name/email), core settings, and remotes.
type Config struct {
	Core struct {
		IsBare        bool
		DefaultBranch string
	}
	User struct {
		Name  string
		Email string
	}
	Remotes map[string]*RemoteConfig

	raw *format.Config
}

// New returns an empty Config.
func New() *Config {
	return &Config{Remotes: make(map[string]*RemoteConfig), raw: format.New()}
}

// ReadConfig parses a config file's contents.
func ReadConfig(r io.Reader) (*Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := New()
	if err := c.Unmarshal(b); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads "config" from fs (normally the repository dot-directory),
// returning a fresh empty Config if the file doesn't exist yet.
func Load(fs billy.Filesystem) (*Config, error) {
	f, err := fs.Open(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("config: opening %s: %w", fileName, err)
	}
	defer f.Close()
	return ReadConfig(f)
}

// Save atomically (temp file + rename) writes c back to fs.
func Save(fs billy.Filesystem, c *Config) error {
	b, err := c.Marshal()
	if err != nil {
		return err
	}

	tmp, err := fs.TempFile("", "tmp_config_")
	if err != nil {
		return fmt.Errorf("config: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("config: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("config: closing temp file: %w", err)
	}
	if err := fs.Rename(tmpName, fileName); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("config: renaming into place: %w", err)
	}
	return nil
}

// Unmarshal parses b (a whole config file) into c, discarding any prior
// contents.
func (c *Config) Unmarshal(b []byte) error {
	c.raw = format.New()
	d := format.NewDecoder(bytes.NewReader(b))
	if err := d.Decode(c.raw); err != nil {
		return fmt.Errorf("config: parsing: %w", err)
	}

	s := c.raw.Section(coreSection)
	c.Core.IsBare = s.Option(bareKey) == "true"
	c.Core.DefaultBranch = s.Option(defaultBranch)

	s = c.raw.Section(userSection)
	c.User.Name = s.Option(nameKey)
	c.User.Email = s.Option(emailKey)

	c.Remotes = make(map[string]*RemoteConfig)
	for _, ss := range c.raw.Section(remoteSection).Subsections {
		c.Remotes[ss.Name] = &RemoteConfig{
			Name:  ss.Name,
			URL:   ss.Option(urlKey),
			Fetch: ss.Option(fetchKey),
		}
	}
	return nil
}

// Marshal renders c back to the raw config text format.
func (c *Config) Marshal() ([]byte, error) {
	c.raw = format.New()

	if c.Core.IsBare {
		c.raw.SetOption(coreSection, format.NoSubsection, bareKey, "true")
	}
	if c.Core.DefaultBranch != "" {
		c.raw.SetOption(coreSection, format.NoSubsection, defaultBranch, c.Core.DefaultBranch)
	}
	if c.User.Name != "" {
		c.raw.SetOption(userSection, format.NoSubsection, nameKey, c.User.Name)
	}
	if c.User.Email != "" {
		c.raw.SetOption(userSection, format.NoSubsection, emailKey, c.User.Email)
	}
	for _, r := range c.Remotes {
		if r.URL != "" {
			c.raw.SetOption(remoteSection, r.Name, urlKey, r.URL)
		}
		if r.Fetch != "" {
			c.raw.SetOption(remoteSection, r.Name, fetchKey, r.Fetch)
		}
	}

	var buf bytes.Buffer
	if err := format.NewEncoder(&buf).Encode(c.raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Remote looks up a remote by name.
func (c *Config) Remote(name string) (*RemoteConfig, error) {
	r, ok := c.Remotes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRemoteNotFound, name)
	}
	return r, nil
}

// SetRemote adds or replaces a remote.
func (c *Config) SetRemote(r *RemoteConfig) {
	if c.Remotes == nil {
		c.Remotes = make(map[string]*RemoteConfig)
	}
	c.Remotes[r.Name] = r
}

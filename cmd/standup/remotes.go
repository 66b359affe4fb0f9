package main

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// Remote is a standup server the CLI queries. Members narrows what the
// query commands print when the remote is active.
type Remote struct {
	Name    string   `toml:"name"`
	URL     string   `toml:"url"`
	Token   string   `toml:"token,omitempty"`
	NATSURL string   `toml:"nats_url,omitempty"`
	Members []string `toml:"members,omitempty"`
}

// remoteFile is the on-disk form of the remotes list, kept sorted by name.
type remoteFile struct {
	Active  string   `toml:"active,omitempty"`
	Remotes []Remote `toml:"remote"`
}

func (f *remoteFile) lookup(name string) (Remote, bool) {
	i := slices.IndexFunc(f.Remotes, func(r Remote) bool { return r.Name == name })
	if i < 0 {
		return Remote{}, false
	}
	return f.Remotes[i], true
}

// put adds r or replaces the remote with the same name.
func (f *remoteFile) put(r Remote) {
	f.Remotes = slices.DeleteFunc(f.Remotes, func(old Remote) bool { return old.Name == r.Name })
	i, _ := slices.BinarySearchFunc(f.Remotes, r.Name, func(a Remote, name string) int {
		return strings.Compare(a.Name, name)
	})
	f.Remotes = slices.Insert(f.Remotes, i, r)
}

// drop removes the named remote and reports whether it existed. Dropping the
// active remote deactivates it.
func (f *remoteFile) drop(name string) bool {
	n := len(f.Remotes)
	f.Remotes = slices.DeleteFunc(f.Remotes, func(r Remote) bool { return r.Name == name })
	if f.Active == name {
		f.Active = ""
	}
	return len(f.Remotes) != n
}

// remotesPath honours STANDUP_REMOTES, then the user config directory.
func remotesPath() (string, error) {
	if p := os.Getenv("STANDUP_REMOTES"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "standup", "remotes.toml"), nil
}

func readRemotes() (remoteFile, error) {
	path, err := remotesPath()
	if err != nil {
		return remoteFile{}, err
	}
	var f remoteFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return remoteFile{}, nil
		}
		return remoteFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return f, nil
}

// writeRemotes replaces the remotes file through a rename, so a failed write
// never leaves a truncated file. Tokens live in it, hence 0600.
func writeRemotes(f remoteFile) error {
	path, err := remotesPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".remotes-*.toml")
	if err != nil {
		return fmt.Errorf("write remotes: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(f); err != nil {
		tmp.Close()
		return fmt.Errorf("encode remotes: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write remotes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write remotes: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write remotes: %w", err)
	}
	return nil
}

// activeRemote is read once per process. A missing or unreadable file means
// no active remote.
var activeRemote = sync.OnceValue(func() Remote {
	f, err := readRemotes()
	if err != nil || f.Active == "" {
		return Remote{}
	}
	r, _ := f.lookup(f.Active)
	return r
})

func activeRemoteURL() string     { return activeRemote().URL }
func activeRemoteToken() string   { return activeRemote().Token }
func activeRemoteNATSURL() string { return activeRemote().NATSURL }

// memberFilter returns the --member flag when given, otherwise the active
// remote's member list. Empty means every member.
func memberFilter(cmd *cobra.Command) []string {
	if cmd.Flags().Changed("member") {
		members, _ := cmd.Flags().GetStringSlice("member")
		return members
	}
	return activeRemote().Members
}

// filterActivity keeps only the listed members' statuses.
func filterActivity(result map[string][]string, members []string) map[string][]string {
	if len(members) == 0 {
		return result
	}
	out := maps.Clone(result)
	maps.DeleteFunc(out, func(member string, _ []string) bool {
		return !slices.Contains(members, member)
	})
	return out
}

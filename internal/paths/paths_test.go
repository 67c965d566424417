package paths

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHomeDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	current, err := user.Current()
	if err != nil {
		t.Skip("cannot get current user")
	}

	tests := []struct {
		name     string
		sudoUser string
		want     string
	}{
		{"no sudo", "", home},
		{"sudo from current user", current.Username, current.HomeDir},
		{"sudo root ignored", "root", home},
		{"unknown sudo user falls back", "nonexistent_user_12345", home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SUDO_USER", tt.sudoUser)

			got, err := UserHomeDir()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultLocations(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	app := filepath.Join(home, ".config", "jellyrename")

	tests := []struct {
		name string
		fn   func(string) (string, error)
		want string
	}{
		{"config", ConfigPath, filepath.Join(app, "config.toml")},
		{"history", HistoryPath, filepath.Join(app, "history.db")},
		{"log", LogPath, filepath.Join(app, "logs", "jellyrename.log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	dir, err := AppDir()
	require.NoError(t, err)
	assert.Equal(t, app, dir)
}

func TestOverrides(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		override string
		want     string
	}{
		{"/srv/media/history.db", "/srv/media/history.db"},
		{"~/h.db", filepath.Join(home, "h.db")},
		{"~", home},
		{"relative/log.txt", "relative/log.txt"},
		{"~other/x.db", "~other/x.db"},
	}

	for _, tt := range tests {
		t.Run(tt.override, func(t *testing.T) {
			for _, fn := range []func(string) (string, error){ConfigPath, HistoryPath, LogPath} {
				got, err := fn(tt.override)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// CouncilCandidates lists the council file locations in lookup order.
func CouncilCandidates(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	candidates := []string{
		filepath.Join(EtcConfigDir, "config.yaml"),
		filepath.Join(EtcConfigDir, "config.json"),
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(dir, AppDirName, "config.yaml"),
			filepath.Join(dir, AppDirName, "config.json"),
		)
	}
	return append(candidates, "config.yaml")
}

// ResolveCouncilPath returns the first existing council file. When none
// exists the default roster is written to the user config directory.
func ResolveCouncilPath(explicit string, defaultCouncil []byte) (string, error) {
	candidates := CouncilCandidates(explicit)
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if explicit != "" {
		return "", fmt.Errorf("council file %s: %w", explicit, fs.ErrNotExist)
	}

	target := "config.yaml"
	if dir, err := os.UserConfigDir(); err == nil {
		target = filepath.Join(dir, AppDirName, "config.yaml")
	}
	if err := WriteDefaultCouncil(target, defaultCouncil); err != nil {
		return "", err
	}
	slog.Info("default council written", "path", target)
	return target, nil
}

func WriteDefaultCouncil(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default council: %w", err)
	}
	return nil
}

// ResolveLogDir picks the directory for audit files and the process log:
// the explicit one, else /var/log/primeminister, else ./logs.
func ResolveLogDir(explicit string) (string, error) {
	if explicit != "" {
		if err := os.MkdirAll(explicit, 0o755); err != nil {
			return "", fmt.Errorf("create log dir: %w", err)
		}
		return explicit, nil
	}
	if err := os.MkdirAll(EtcLogDir, 0o755); err == nil && writable(EtcLogDir) {
		return EtcLogDir, nil
	}
	if err := os.MkdirAll(LocalLogDir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	return LocalLogDir, nil
}

func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return true
}

// Provider returns the API URL and key, preferring the environment over the
// council file.
func (c *Config) Provider(r *Roster) (apiURL, apiKey string) {
	apiURL, apiKey = c.APIURL, c.APIKey
	if apiURL == "" && r != nil {
		apiURL = r.APIURL
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if apiKey == "" && r != nil {
		apiKey = r.APIKey
	}
	return apiURL, apiKey
}

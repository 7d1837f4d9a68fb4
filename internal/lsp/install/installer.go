package install

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/quill-ai/quill/internal/logging"
)

// BinDir returns the directory where auto-installed LSP binaries live.
func BinDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".quill", "bin")
	}
	return filepath.Join(home, ".quill", "bin")
}

// ResolveCommand locates the server binary for a definition, auto-installing
// it when the definition has an install strategy and downloads are allowed.
// It returns the resolved executable path and its arguments, or an error
// when the binary cannot be obtained; the manager blacklists the server id
// on that error.
func ResolveCommand(ctx context.Context, def ServerDefinition, disableDownload bool) (string, []string, error) {
	if len(def.Command) == 0 {
		return "", nil, fmt.Errorf("no command configured for %s", def.ID)
	}

	cmd := def.Command[0]
	args := def.Command[1:]

	// Absolute paths are taken at face value.
	if filepath.IsAbs(cmd) {
		if _, err := os.Stat(cmd); err != nil {
			return "", nil, fmt.Errorf("configured command not found: %s", cmd)
		}
		return cmd, args, nil
	}

	if path, ok := locateBinary(cmd); ok {
		return path, args, nil
	}

	if disableDownload || def.Strategy == StrategyNone {
		return "", nil, fmt.Errorf("binary %q not found for %s (auto-install disabled or not supported)", cmd, def.ID)
	}

	logging.Info("Auto-installing LSP server", "server", def.ID, "strategy", def.Strategy)

	var err error
	switch def.Strategy {
	case StrategyNpm:
		err = installNpm(ctx, def)
	case StrategyGoInstall:
		err = installGo(ctx, def)
	case StrategyGitHubRelease:
		err = installGitHubRelease(ctx, def)
	default:
		return "", nil, fmt.Errorf("unknown install strategy for %s", def.ID)
	}
	if err != nil {
		return "", nil, fmt.Errorf("auto-install failed for %s: %w", def.ID, err)
	}

	if path, ok := locateBinary(cmd); ok {
		logging.Info("LSP server installed", "server", def.ID, "path", path)
		return path, args, nil
	}
	return "", nil, fmt.Errorf("binary %q still not found after install for %s", cmd, def.ID)
}

// locateBinary checks the system PATH, the quill bin directory, and the npm
// bin directory inside it.
func locateBinary(name string) (string, bool) {
	if path, err := exec.LookPath(name); err == nil {
		return path, true
	}
	for _, candidate := range []string{
		filepath.Join(BinDir(), name),
		filepath.Join(BinDir(), "node_modules", ".bin", name),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func installNpm(ctx context.Context, def ServerDefinition) error {
	npmPath, err := exec.LookPath("npm")
	if err != nil {
		return fmt.Errorf("npm not found in PATH, cannot auto-install %s", def.ID)
	}

	binDir := BinDir()
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating bin directory: %w", err)
	}

	args := append([]string{"install", "--prefix", binDir}, strings.Fields(def.InstallPackage)...)
	cmd := exec.CommandContext(ctx, npmPath, args...)
	cmd.Dir = binDir

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("npm install failed: %w\noutput: %s", err, output)
	}
	return nil
}

func installGo(ctx context.Context, def ServerDefinition) error {
	goPath, err := exec.LookPath("go")
	if err != nil {
		return fmt.Errorf("go not found in PATH, cannot auto-install %s", def.ID)
	}

	binDir := BinDir()
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating bin directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, goPath, "install", def.InstallPackage)
	cmd.Env = append(os.Environ(), "GOBIN="+binDir)

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("go install failed: %w\noutput: %s", err, output)
	}
	return nil
}

type releaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

func installGitHubRelease(ctx context.Context, def ServerDefinition) error {
	if def.InstallRepo == "" {
		return fmt.Errorf("no GitHub repo configured for %s", def.ID)
	}

	binDir := BinDir()
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating bin directory: %w", err)
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", def.InstallRepo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching release info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub API returned status %d for %s", resp.StatusCode, def.InstallRepo)
	}

	var release struct {
		Assets []releaseAsset `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return fmt.Errorf("decoding release info: %w", err)
	}

	assetURL := matchReleaseAsset(release.Assets)
	if assetURL == "" {
		return fmt.Errorf("no release asset for %s on %s/%s", def.ID, runtime.GOOS, runtime.GOARCH)
	}

	logging.Info("Downloading LSP server", "server", def.ID, "url", assetURL)
	return downloadAndExtract(ctx, assetURL, binDir, def.Command[0])
}

// matchReleaseAsset picks the first asset whose name mentions both the
// current OS and architecture, accepting the usual naming variations.
func matchReleaseAsset(assets []releaseAsset) string {
	osNames := []string{runtime.GOOS}
	switch runtime.GOOS {
	case "darwin":
		osNames = append(osNames, "macos", "osx", "apple")
	case "windows":
		osNames = append(osNames, "win")
	}

	archNames := []string{runtime.GOARCH}
	switch runtime.GOARCH {
	case "amd64":
		archNames = append(archNames, "x86_64", "x64")
	case "arm64":
		archNames = append(archNames, "aarch64")
	}

	contains := func(name string, candidates []string) bool {
		for _, c := range candidates {
			if strings.Contains(name, c) {
				return true
			}
		}
		return false
	}

	for _, a := range assets {
		name := strings.ToLower(a.Name)
		if contains(name, osNames) && contains(name, archNames) {
			return a.BrowserDownloadURL
		}
	}
	return ""
}

func downloadAndExtract(ctx context.Context, url, destDir, binaryName string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading release: %w", err)
	}
	defer resp.Body.Close()

	tmpFile, err := os.CreateTemp(destDir, "lsp-download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing download: %w", err)
	}
	tmpFile.Close()

	name := filepath.Base(url)
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		return extractArchive(exec.Command("tar", "xzf", tmpFile.Name(), "-C", destDir), destDir, binaryName)
	case strings.HasSuffix(name, ".zip"):
		return extractArchive(exec.Command("unzip", "-o", tmpFile.Name(), "-d", destDir), destDir, binaryName)
	default:
		// Raw binary.
		dest := filepath.Join(destDir, binaryName)
		if err := os.Rename(tmpFile.Name(), dest); err != nil {
			return err
		}
		return os.Chmod(dest, 0o755)
	}
}

func extractArchive(cmd *exec.Cmd, destDir, binaryName string) error {
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("extraction failed: %w\noutput: %s", err, output)
	}

	// The binary may land at the top level or inside a release subdirectory.
	binary := filepath.Join(destDir, binaryName)
	if _, err := os.Stat(binary); err == nil {
		return os.Chmod(binary, 0o755)
	}
	return filepath.WalkDir(destDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if d.Name() == binaryName {
			return os.Chmod(path, 0o755)
		}
		return nil
	})
}

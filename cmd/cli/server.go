package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	serverBinary       = "appcatalog-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

var serverConfig string

func init() {
	rootCmd.PersistentFlags().StringVar(&serverConfig, "server-config", "", "Config file passed to an auto-started server")
}

// isServerRunning checks if the server answers the status probe
func isServerRunning() bool {
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(strings.TrimSuffix(serverURL, "/") + "/status")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findServerBinary looks next to the CLI binary first, then on PATH
func findServerBinary() (string, error) {
	candidates := []string{}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), serverBinary))
	}
	if onPath, err := exec.LookPath(serverBinary); err == nil {
		candidates = append(candidates, onPath)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, "go", "bin", serverBinary),
			filepath.Join(home, ".local", "bin", serverBinary))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s binary not found", serverBinary)
}

// startServerBackground starts the server detached from the terminal.
// Its output goes to <tmp>/appcatalog-server.log.
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	args := []string{}
	if serverConfig != "" {
		args = append(args, "-config", serverConfig)
	}
	cmd := exec.Command(serverPath, args...)

	logFile, err := os.OpenFile(filepath.Join(os.TempDir(), serverBinary+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open server log: %w", err)
	}
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return cmd.Process.Release()
}

// waitForServerReady polls the status probe until it answers or timeout
func waitForServerReady() error {
	ticker := time.NewTicker(serverPollInterval)
	defer ticker.Stop()
	deadline := time.After(serverStartTimeout)

	for {
		select {
		case <-deadline:
			return fmt.Errorf("server did not start within %v", serverStartTimeout)
		case <-ticker.C:
			if isServerRunning() {
				return nil
			}
		}
	}
}

// ensureServerRunning checks if server is running, starts it if not
func ensureServerRunning() error {
	if isServerRunning() {
		return nil
	}

	fmt.Fprintln(os.Stderr, "Server not running, starting...")

	if err := startServerBackground(); err != nil {
		return err
	}
	if err := waitForServerReady(); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Server started")
	return nil
}

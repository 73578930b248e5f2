package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/region-tools-mcp/internal/config"
	"github.com/ironsheep/region-tools-mcp/internal/imaging"
	"github.com/ironsheep/region-tools-mcp/internal/platform"
	"github.com/ironsheep/region-tools-mcp/internal/platform/desktop"
	"github.com/ironsheep/region-tools-mcp/internal/platform/virtual"
	"github.com/ironsheep/region-tools-mcp/internal/region"
	"github.com/ironsheep/region-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("region-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("region-tools-mcp - MCP server for screen region automation")
			fmt.Println()
			fmt.Println("Usage: region-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  REGION_MCP_CONFIG=<file>           TOML or YAML settings file")
			fmt.Println("  REGION_MCP_LOG_LEVEL=debug         Enable debug logging")
			fmt.Println("  REGION_MCP_IMAGE_PATHS=<dirs>      Pattern image search path")
			fmt.Println("  REGION_MCP_SCREEN_IMAGE=<file>     Serve a still image instead of the desktop")
			fmt.Println()
			fmt.Println("Any setting can also be given as REGION_MCP_<NAME>, e.g.")
			fmt.Println("REGION_MCP_MIN_SIMILARITY=0.8 or REGION_MCP_AUTO_WAIT_TIMEOUT=5.")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run serves MCP requests until stdin closes. Deferred cleanup runs on
// every return path.
func run() error {
	settings, err := config.Load(os.Getenv("REGION_MCP_CONFIG"))
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if settings.Debug() {
		log.Printf("Region MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	p, err := openPlatform(os.Getenv("REGION_MCP_SCREEN_IMAGE"))
	if err != nil {
		return fmt.Errorf("platform error: %w", err)
	}

	session, err := region.NewSession(p, nil, settings, region.WithLogger(log.Default()))
	if err != nil {
		return fmt.Errorf("session error: %w", err)
	}

	// Pattern files edited while the server runs are picked up on next use
	watcher, err := session.Library().Watch()
	if err != nil {
		log.Printf("Pattern directories are not watched: %v", err)
	} else {
		defer watcher.Close()
		if settings.Debug() {
			log.Printf("Watching pattern directories %v", watcher.Dirs())
		}
	}

	srv := server.New(session, Version)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// openPlatform returns the real desktop, or a virtual desktop showing the
// image at path when one is given.
func openPlatform(path string) (platform.Platform, error) {
	if path == "" {
		return desktop.New()
	}
	img, err := imaging.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	log.Printf("Serving still image %s instead of the desktop", path)
	return virtual.FromImage(img), nil
}

// Command demoserver starts a fake webmail inbox and risk backend for trying
// phishguard locally.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/raysh454/phishguard/internal/demoserver"
	"github.com/raysh454/phishguard/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	fmt.Println("===========================================")
	fmt.Println("   PhishGuard Demo Server")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Try it with:")
	fmt.Printf("  phishguard serve --backend %s/api\n", base)
	fmt.Printf("  phishguard check %s/mail/inbox --all-pages\n", base)
	fmt.Println()
	fmt.Printf("Change verdicts at %s/demo/control\n", base)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewLogger(os.Stderr, "demoserver", logging.LevelInfo)
	server := demoserver.NewDemoServer(cfg, logger)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

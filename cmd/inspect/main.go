package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wasmlink/guest-runtime/resource"
)

func main() {
	var (
		pages       = flag.Uint("pages", 1, "Initial linear memory pages (64 KiB each)")
		verbose     = flag.Bool("v", false, "Log registry lifecycle events")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
		resource.SetLogger(log)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(uint32(*pages)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runDemo(uint32(*pages)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runDemo walks one boundary session through the full ownership lifecycle
// and prints the state after each step.
func runDemo(pages uint32) error {
	s := newSession(pages)
	defer s.close()
	s.table.Subscribe(resource.NewLogObserver(nil))

	fmt.Println("Exporting resources...")
	h1, err := s.export("alpha", "first widget payload")
	if err != nil {
		return err
	}
	h2, err := s.export("beta", "second widget payload")
	if err != nil {
		return err
	}
	fmt.Printf("  alpha -> handle %d, beta -> handle %d\n", h1, h2)

	fmt.Println("\nCopying buffers...")
	if _, err := s.copyBuffer("hello across the boundary"); err != nil {
		return err
	}
	idx, err := s.copyBuffer("transferred onward")
	if err != nil {
		return err
	}

	fmt.Println("Leaking one buffer (obligation handed to the receiver)...")
	ptr, count, err := s.leakBuffer(idx)
	if err != nil {
		return err
	}
	fmt.Printf("  raw parts: ptr=%d len=%d\n", ptr, count)

	fmt.Println("Releasing alpha (host runs the destructor)...")
	if err := s.release(h1); err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(s.summary())
	return nil
}

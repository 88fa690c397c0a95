package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchAndCompile recompiles the file whenever it changes. The parent
// directory is watched rather than the file itself; editors that replace
// the file on save would otherwise drop the watch.
func watchAndCompile(path string, opts options) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	recompile := func() {
		fmt.Printf("--- %s %s ---\n", time.Now().Format("15:04:05"), filepath.Base(abs))
		if err := compileFile(abs, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	recompile()
	fmt.Println("watching for changes (Ctrl+C to stop)")

	// Editors fire bursts of events per save; collapse them with a short
	// settle delay.
	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(100 * time.Millisecond)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		case <-pending:
			pending = nil
			recompile()
		}
	}
}

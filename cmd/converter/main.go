package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adam-Roller/mxl-2-solo/parser/partwise"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var outPath string
	var dump bool
	pflag.StringVarP(&outPath, "output", "o", "", "path of the .gjm file to write (default: input path with .gjm extension)")
	pflag.BoolVarP(&dump, "dump", "d", false, "dump the converted notation model before writing")
	pflag.Parse()

	// Get the path of the MusicXML score.
	path, err := choosePath(cwd, pflag.Args())
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Fatalf("error opening file: %v", err)
	}
	defer file.Close()

	p := partwise.NewParser(file, logger)
	notation, err := p.Parse()
	if err != nil {
		logger.Fatalf("parse error: %v", err)
	}

	if dump {
		spew.Dump(notation)
	}

	// Write a .gjm file next to the source file unless told otherwise.
	if outPath == "" {
		ext := filepath.Ext(path)
		outPath = strings.TrimSuffix(path, ext) + ".gjm"
	}

	// The output file is created only now, after the whole input parsed
	// without a fatal error. A failed conversion never leaves partial output.
	out, err := os.Create(outPath)
	if err != nil {
		logger.Fatalf("error creating output file: %v", err)
	}
	defer out.Close()

	if err := notation.Encode(out); err != nil {
		logger.Fatalf("error writing output file: %v", err)
	}
	logger.Printf("Wrote %s", outPath)
}

// choosePath returns the file path either from the command-line args
// or from an interactive file dialog.
func choosePath(cwd string, args []string) (string, error) {
	// If an argument was passed to the program, use it.
	if len(args) > 0 {
		path := args[0]
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot get absolute path: %w", err)
		}
		if err := validatePath(absPath); err != nil {
			return "", fmt.Errorf("passed argument is not a valid path: %w", err)
		}
		return absPath, nil
	}

	// Otherwise open the file dialog.
	path, err := dialog.
		File().
		Title("Open MusicXML score").
		Filter("MusicXML scores (*.musicxml, *.xml)", "musicxml", "xml").
		SetStartDir(cwd).
		Load()
	if err != nil {
		// Propagate the error. Caller will check for dialog.ErrCancelled.
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}

	// Check for empty path just in case.
	if absPath == "" {
		return "", dialog.ErrCancelled
	}
	if err := validatePath(absPath); err != nil {
		return "", fmt.Errorf("dialog selection invalid: %w", err)
	}
	return absPath, nil
}

// validatePath performs simple checks to verify if a file exists or not.
func validatePath(p string) error {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".musicxml", ".xml":
	default:
		return fmt.Errorf("file must have .musicxml or .xml extension")
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	return nil
}

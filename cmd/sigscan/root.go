package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/stephen-fox/inproc/memory"
	"gitlab.com/stephen-fox/inproc/pattern"
)

type options struct {
	pattern   string
	sigFile   string
	context   string
	algorithm string
	all       bool
	logLevel  string
	pretty    bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "sigscan [flags] FILE...",
		Short: "Search files for byte signatures",
		Long: `Search files for byte signatures.

A single signature can be specified with -p as whitespace separated
hex bytes, where ? or ?? matches any byte:

  sigscan -p "48 8D 05 ?? ?? ?? ?? 48 89 01" game.so

A set of signatures can be loaded from a YAML file with -f. The
--context flag selects which set of signatures in the file is used.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(logConfig{
				Level:  opts.logLevel,
				Pretty: opts.pretty,
				Output: cmd.ErrOrStderr(),
			})

			return run(cmd.OutOrStdout(), logger, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.pattern, "pattern", "p", "", "Signature to search for (e.g., \"E8 ?? ?? ?? ?? 90\")")
	cmd.Flags().StringVarP(&opts.sigFile, "file", "f", "", "YAML file containing signatures")
	cmd.Flags().StringVar(&opts.context, "context", "", "Signature context to use from the YAML file (defaults to the only context)")
	cmd.Flags().StringVar(&opts.algorithm, "algorithm", pattern.Horspool.String(), "Search algorithm (naive, horspool)")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "Report every match instead of only the first")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", true, "Human-readable log output")

	cmd.MarkFlagsMutuallyExclusive("pattern", "file")
	cmd.MarkFlagsOneRequired("pattern", "file")

	return cmd
}

func run(out io.Writer, logger zerolog.Logger, opts options, files []string) error {
	algorithm, err := parseAlgorithm(opts.algorithm)
	if err != nil {
		return err
	}

	sigs, err := loadSignatures(opts)
	if err != nil {
		return err
	}

	logger.Debug().
		Int("signatures", len(sigs)).
		Stringer("algorithm", algorithm).
		Msg("loaded signatures")

	missing := 0

	for _, file := range files {
		n, err := scanFile(out, logger, file, sigs, algorithm, opts.all)
		if err != nil {
			return fmt.Errorf("failed to scan %q - %w", file, err)
		}

		missing += n
	}

	if missing > 0 {
		return fmt.Errorf("%d signature search(es) had no match", missing)
	}

	return nil
}

func parseAlgorithm(name string) (pattern.Algorithm, error) {
	for _, algorithm := range []pattern.Algorithm{pattern.Naive, pattern.Horspool} {
		if strings.EqualFold(name, algorithm.String()) {
			return algorithm, nil
		}
	}

	return 0, fmt.Errorf("unknown algorithm: %q", name)
}

func loadSignatures(opts options) ([]pattern.Signature, error) {
	if opts.pattern != "" {
		p, err := pattern.Parse(opts.pattern)
		if err != nil {
			return nil, err
		}

		return []pattern.Signature{{Name: "pattern", Pattern: p}}, nil
	}

	f, err := os.Open(opts.sigFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := pattern.LoadSignatureTable(f, opts.context)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q - %w", opts.sigFile, err)
	}

	if opts.context == "" {
		contexts := table.Contexts()
		if len(contexts) != 1 {
			return nil, fmt.Errorf("%q has %d contexts, please specify one with --context (available: %s)",
				opts.sigFile, len(contexts), strings.Join(contexts, ", "))
		}

		table.SetContext(contexts[0])
	}

	sigs := table.Signatures()
	if len(sigs) == 0 {
		return nil, fmt.Errorf("context %q has no signatures (available: %s)",
			table.CurrentContext(), strings.Join(table.Contexts(), ", "))
	}

	return sigs, nil
}

// scanFile writes one line per match to out and returns the number of
// signatures that had no match. Signatures naming a module are only
// searched for in files with that base name.
func scanFile(out io.Writer, logger zerolog.Logger, file string, sigs []pattern.Signature, algorithm pattern.Algorithm, all bool) (int, error) {
	image, err := mapFile(file)
	if err != nil {
		return 0, err
	}
	defer image.Close()

	rng := image.Range()

	logger.Debug().
		Str("file", file).
		Stringer("range", rng).
		Msg("mapped file")

	scanner := pattern.Scanner{
		Reader:    image,
		Algorithm: algorithm,
	}

	missing := 0

	for _, sig := range sigs {
		if sig.Module != "" && sig.Module != filepath.Base(file) {
			logger.Debug().
				Str("file", file).
				Str("signature", sig.Name).
				Str("module", sig.Module).
				Msg("skipping signature for another module")
			continue
		}

		var addrs []memory.Address

		if all {
			addrs, err = scanner.FindAll(sig.Pattern, rng)
		} else {
			var addr memory.Address
			addr, err = scanner.FindFirst(sig.Pattern, rng)
			addrs = []memory.Address{addr}
		}

		switch {
		case errors.Is(err, pattern.ErrNotFound), err == nil && len(addrs) == 0:
			logger.Warn().
				Str("file", file).
				Str("signature", sig.Name).
				Stringer("pattern", sig.Pattern).
				Msg("no match")
			missing++
			continue
		case err != nil:
			return 0, fmt.Errorf("failed to search for %q - %w", sig.Name, err)
		}

		for _, addr := range addrs {
			offset := uintptr(addr-rng.From) + uintptr(sig.Offset)
			_, err = fmt.Fprintf(out, "%s: %s 0x%x\n", file, sig.Name, offset)
			if err != nil {
				return 0, err
			}
		}
	}

	return missing, nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/zcopy/internal/verify"
	"github.com/bamsammich/zcopy/internal/zerocopy"
)

type spliceOpts struct {
	srcOffset int64
	length    sizeFlag
	pipeSize  sizeFlag
	bwLimit   sizeFlag
	verify    bool
	workers   int
}

func newSpliceCmd(g *globalOpts) *cobra.Command {
	var o spliceOpts

	cmd := &cobra.Command{
		Use:   "splice <source> <destination>",
		Short: "Copy a file through a kernel pipe with splice",
		Long: `Copy a file by splicing it into a pipe and out again, without the data
passing through user space. Works where copy_file_range is unavailable.

The destination is written to a temporary file next to it and renamed into
place when the transfer finishes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := g.cfg.Defaults
			if !cmd.Flags().Changed("verify") && d.Verify != nil {
				o.verify = *d.Verify
			}
			if !cmd.Flags().Changed("workers") && d.Workers != nil {
				o.workers = *d.Workers
			}
			pipeSize, err := o.pipeSize.orConfig(d.PipeSize)
			if err != nil {
				return fmt.Errorf("invalid --pipe-size: %w", err)
			}
			bwLimit, err := o.bwLimit.orConfig(d.BWLimit)
			if err != nil {
				return fmt.Errorf("invalid --bwlimit: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runSplice(ctx, g, &o, args[0], args[1], int(pipeSize), bwLimit)
		},
	}

	f := cmd.Flags()
	f.Int64Var(&o.srcOffset, "src-offset", 0, "start reading the source at this byte offset")
	f.Var(&o.length, "length", "bytes to copy (default: rest of the source)")
	f.Var(&o.pipeSize, "pipe-size", "requested pipe buffer size (e.g. 1M)")
	f.Var(&o.bwLimit, "bwlimit", "bandwidth limit (e.g. 100M, 1G)")
	f.BoolVar(&o.verify, "verify", false, "verify the copy afterwards (BLAKE3)")
	f.IntVarP(&o.workers, "workers", "n", 0, "maximum bridge threads (default 512)")

	return cmd
}

func runSplice(
	ctx context.Context,
	g *globalOpts,
	o *spliceOpts,
	srcPath, dstPath string,
	pipeSize int,
	bwLimit int64,
) error {
	srcFile, length, err := openSource(srcPath, o.srcOffset, &o.length)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	fi, err := srcFile.Stat()
	if err != nil {
		return err
	}
	src, err := zerocopy.NewExplicitOffset(srcFile, zerocopy.Readable, o.srcOffset)
	if err != nil {
		return err
	}
	dst, err := newTempDestination(dstPath, fi.Mode().Perm())
	if err != nil {
		return err
	}

	// The relay holds two bridge threads for its whole run.
	workers := o.workers
	if workers == 1 {
		workers = 2
	}
	sess := g.newSession(workers, bwLimit)
	sess.start(g.logFile != "")

	slog.Debug("starting splice",
		"src", srcPath, "dst", dstPath,
		"src_offset", o.srcOffset, "length", length, "pipe_size", pipeSize,
	)

	var pipeOpts []zerocopy.PipeOption
	if pipeSize > 0 {
		pipeOpts = append(pipeOpts, zerocopy.WithPipeSize(pipeSize))
	}
	n, err := sess.engine.Relay(ctx, src, dst.strategy, int(length), pipeOpts...)
	if err == nil {
		err = dst.commit()
	}
	if err != nil {
		dst.abort()
	}
	sess.finish()

	if err != nil {
		return fmt.Errorf("splice %s -> %s: %w", srcPath, dstPath, err)
	}
	delivered := int64(n)
	if delivered < length {
		slog.Warn("short copy: source ended early",
			"requested", length, "moved", delivered)
	}

	if o.verify && delivered > 0 {
		if err := verify.Ranges(srcPath, o.srcOffset, dstPath, 0, delivered); err != nil {
			return err
		}
		slog.Info("verified", "bytes", delivered)
	}
	return nil
}

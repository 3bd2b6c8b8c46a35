package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/zcopy/internal/platform"
	"github.com/bamsammich/zcopy/internal/verify"
	"github.com/bamsammich/zcopy/internal/zerocopy"
)

const lockTimeout = 30 * time.Second

// minChunk is the smallest range worth giving its own concurrent transfer.
const minChunk = 1 << 20

var errSourceChanged = errors.New("source changed during copy")

type copyOpts struct {
	srcOffset int64
	dstOffset int64
	length    sizeFlag
	bwLimit   sizeFlag
	verify    bool
	workers   int
	chunks    int
}

func newCopyCmd(g *globalOpts) *cobra.Command {
	var o copyOpts

	cmd := &cobra.Command{
		Use:   "copy <source> <destination>",
		Short: "Copy a byte range between files with copy_file_range",
		Long: `Copy a byte range between two regular files entirely in the kernel.

Without --dst-offset the destination is written to a temporary file next to
it and renamed into place when the copy finishes. With --dst-offset the
destination is opened in place and written starting at that offset.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := g.cfg.Defaults
			if !cmd.Flags().Changed("verify") && d.Verify != nil {
				o.verify = *d.Verify
			}
			if !cmd.Flags().Changed("workers") && d.Workers != nil {
				o.workers = *d.Workers
			}
			bwLimit, err := o.bwLimit.orConfig(d.BWLimit)
			if err != nil {
				return fmt.Errorf("invalid --bwlimit: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			inPlace := cmd.Flags().Changed("dst-offset")
			return runCopy(ctx, g, &o, args[0], args[1], inPlace, bwLimit)
		},
	}

	f := cmd.Flags()
	f.Int64Var(&o.srcOffset, "src-offset", 0, "start reading the source at this byte offset")
	f.Int64Var(&o.dstOffset, "dst-offset", 0, "write the destination in place starting at this byte offset")
	f.Var(&o.length, "length", "bytes to copy (default: rest of the source)")
	f.Var(&o.bwLimit, "bwlimit", "bandwidth limit (e.g. 100M, 1G)")
	f.BoolVar(&o.verify, "verify", false, "verify the copied range afterwards (BLAKE3)")
	f.IntVarP(&o.workers, "workers", "n", 0, "maximum bridge threads (default 512)")
	f.IntVar(&o.chunks, "chunks", 1, "split the range into up to N concurrent transfers")

	return cmd
}

//nolint:gocyclo,revive // sequential setup of both endpoints with cleanup on every path
func runCopy(
	ctx context.Context,
	g *globalOpts,
	o *copyOpts,
	srcPath, dstPath string,
	inPlace bool,
	bwLimit int64,
) error {
	probe := platform.CopyFileRangeAvailability()
	if !probe.Usable() {
		slog.Error("copy_file_range is not usable",
			"availability", probe.Availability, "error", probe.Err)
		return &exitError{code: 2}
	}
	if o.dstOffset < 0 {
		return fmt.Errorf("destination offset %d: %w", o.dstOffset, zerocopy.ErrNegativeOffset)
	}

	srcFile, length, err := openSource(srcPath, o.srcOffset, &o.length)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	fi, err := srcFile.Stat()
	if err != nil {
		return err
	}

	plan := planChunks(length, o.chunks)

	sess := g.newSession(o.workers, bwLimit)
	sess.start(g.logFile != "")

	slog.Debug("starting copy",
		"src", srcPath, "dst", dstPath,
		"src_offset", o.srcOffset, "dst_offset", o.dstOffset,
		"length", length, "chunks", len(plan), "in_place", inPlace,
	)

	var (
		moved  int64
		dstOff int64
	)
	switch {
	case inPlace:
		dstOff = o.dstOffset
		var dstFile *os.File
		dstFile, err = os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE, fi.Mode().Perm())
		if err != nil {
			sess.finish()
			return err
		}
		var unlock func()
		unlock, err = lockDestination(ctx, dstPath)
		if err != nil {
			_ = dstFile.Close()
			sess.finish()
			return err
		}
		moved, err = copyChunks(ctx, sess.engine, srcFile, dstFile, o.srcOffset, dstOff, plan)
		if cerr := dstFile.Close(); err == nil && cerr != nil {
			err = cerr
		}
		unlock()

	case len(plan) > 1:
		var f *os.File
		var tmp string
		f, tmp, err = createTemp(dstPath, fi.Mode().Perm())
		if err != nil {
			sess.finish()
			return err
		}
		moved, err = copyChunks(ctx, sess.engine, srcFile, f, o.srcOffset, 0, plan)
		if err == nil {
			err = commitTemp(f, tmp, dstPath)
		} else {
			_ = f.Close()
		}
		if err != nil {
			_ = os.Remove(tmp)
		}

	default:
		var dst *tempDestination
		dst, err = newTempDestination(dstPath, fi.Mode().Perm())
		if err != nil {
			sess.finish()
			return err
		}
		moved, err = copySingle(ctx, sess.engine, srcFile, dst.strategy, o.srcOffset, length)
		if err == nil {
			err = dst.commit()
		}
		if err != nil {
			dst.abort()
		}
	}
	sess.finish()

	if err != nil {
		return fmt.Errorf("copy %s -> %s: %w", srcPath, dstPath, err)
	}
	if moved < length {
		slog.Warn("short copy: source ended early",
			"requested", length, "moved", moved)
	}

	if o.verify && moved > 0 {
		if err := verify.Ranges(srcPath, o.srcOffset, dstPath, dstOff, moved); err != nil {
			return err
		}
		slog.Info("verified", "bytes", moved)
	}
	return nil
}

// lockDestination takes an exclusive advisory lock on path so concurrent
// in-place writers to the same file are serialized.
func lockDestination(ctx context.Context, path string) (func(), error) {
	fileLock := flock.New(path)

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: timeout after %v", path, lockTimeout)
	}
	return func() { _ = fileLock.Unlock() }, nil
}

func copySingle(
	ctx context.Context,
	eng *zerocopy.Engine,
	srcFile *os.File,
	dst zerocopy.Strategy,
	srcOff, length int64,
) (int64, error) {
	src, err := zerocopy.NewExplicitOffset(srcFile, zerocopy.Readable, srcOff)
	if err != nil {
		return 0, err
	}
	n, err := eng.CopyFileRange(ctx, src, dst, int(length))
	return int64(n), err
}

// copyChunks copies every chunk of plan concurrently. Each chunk gets its own
// pair of explicit offsets over the shared descriptors.
func copyChunks(
	ctx context.Context,
	eng *zerocopy.Engine,
	srcFile, dstFile *os.File,
	srcBase, dstBase int64,
	plan []chunk,
) (int64, error) {
	type pair struct{ src, dst *zerocopy.ExplicitOffset }
	pairs := make([]pair, len(plan))
	for i, c := range plan {
		src, err := zerocopy.NewExplicitOffset(srcFile, zerocopy.Readable, srcBase+c.off)
		if err != nil {
			return 0, err
		}
		dst, err := zerocopy.NewExplicitOffset(dstFile, zerocopy.Writable, dstBase+c.off)
		if err != nil {
			return 0, err
		}
		pairs[i] = pair{src, dst}
	}

	moved := make([]int64, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range plan {
		g.Go(func() error {
			n, err := eng.CopyFileRange(gctx, pairs[i].src, pairs[i].dst, int(c.n))
			moved[i] = int64(n)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	// A short chunk followed by data means the file was modified under us
	// and the destination has a gap.
	var total int64
	short := false
	for i, c := range plan {
		if short && moved[i] > 0 {
			return 0, errSourceChanged
		}
		total += moved[i]
		short = short || moved[i] < c.n
	}
	return total, nil
}

// chunk is one contiguous piece of a copy, relative to the range start.
type chunk struct {
	off int64
	n   int64
}

// planChunks splits length bytes into at most parts contiguous chunks, and
// no more chunks than length has whole or partial minChunk units. There is
// always at least one chunk.
func planChunks(length int64, parts int) []chunk {
	parts = max(parts, 1)
	parts = int(min(int64(parts), max((length+minChunk-1)/minChunk, 1)))

	size := (length + int64(parts) - 1) / int64(parts)
	plan := make([]chunk, 0, parts)
	for off := int64(0); off < length || len(plan) == 0; off += size {
		plan = append(plan, chunk{off: off, n: min(size, length-off)})
		if size == 0 {
			break
		}
	}
	return plan
}

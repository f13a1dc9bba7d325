// Package ingest wires the walker, reader and assembler into one scan.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/ingest/internal/digest"
	"github.com/temirov/ingest/internal/pattern"
	"github.com/temirov/ingest/internal/reader"
	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
	"github.com/temirov/ingest/internal/walker"
)

const (
	buildMatcherError    = "build pattern matcher: %w"
	assembleDigestError  = "assemble digest: %w"
	tokenCountLogMessage = "token counting failed"
	scanCompleteMessage  = "scan complete"
	rootLogField         = "root"
	filesLogField        = "files"
	directoriesLogField  = "directories"
	bytesLogField        = "bytes"
	skippedLogField      = "skipped"
	estimatedTokensField = "estimated_tokens"
	counterLogField      = "counter"
)

// Options carries the collaborators of a scan.
type Options struct {
	// Logger receives progress and skip diagnostics. Nil disables logging.
	Logger *zap.Logger
	// TokenCounter, when set, computes an exact token count of the digest body.
	TokenCounter tokenizer.Counter
}

// Run scans cfg.Root() and returns its digest. The walk feeds the assembler
// while up to cfg.Workers() reads run in parallel; each read lands in the slot
// of its candidate so completion order never affects the result. Only a
// *types.FatalScanError or cancellation of ctx ends the run with an error.
func Run(ctx context.Context, cfg types.ScanConfig, options Options) (types.DigestResult, error) {
	logger := utils.LoggerOrNop(options.Logger)

	matcher, matcherErr := pattern.New(cfg)
	if matcherErr != nil {
		return types.DigestResult{}, fmt.Errorf(buildMatcherError, matcherErr)
	}
	treeWalker := walker.New(cfg, matcher, logger)
	fileReader := reader.New(cfg, logger)
	assembler := digest.NewAssembler(cfg)

	records, scanErr := scan(ctx, cfg.Workers(), treeWalker, fileReader, assembler)
	if scanErr != nil {
		return types.DigestResult{}, scanErr
	}

	result, assembleErr := assembler.Assemble(records)
	if assembleErr != nil {
		return types.DigestResult{}, fmt.Errorf(assembleDigestError, assembleErr)
	}

	if options.TokenCounter != nil {
		countResult, countErr := tokenizer.CountStrings(options.TokenCounter, digest.RenderBody(result))
		if countErr != nil {
			logger.Warn(tokenCountLogMessage, zap.String(counterLogField, options.TokenCounter.Name()), zap.Error(countErr))
		} else if countResult.Counted {
			result.Statistics.ModelTokenCount = countResult.Tokens
			result.Statistics.TokenModel = options.TokenCounter.Name()
		}
	}

	logger.Info(scanCompleteMessage,
		zap.String(rootLogField, cfg.Root()),
		zap.Int(filesLogField, result.Statistics.FileCount),
		zap.Int(directoriesLogField, result.Statistics.DirectoryCount),
		zap.Int64(bytesLogField, result.Statistics.TotalSizeBytes),
		zap.Int(skippedLogField, result.Statistics.SkippedCount),
		zap.Int(estimatedTokensField, result.Statistics.EstimatedTokenCount))
	return result, nil
}

// scan runs the walk as a producer and the assembler as its consumer. The
// consumer dispatches a bounded read for every candidate it accepts.
func scan(ctx context.Context, workers int, treeWalker *walker.Walker, fileReader *reader.Reader, assembler *digest.Assembler) ([]types.FileRecord, error) {
	group, scanCtx := errgroup.WithContext(ctx)
	entries := make(chan types.TreeEntry)

	readers, readCtx := errgroup.WithContext(scanCtx)
	readers.SetLimit(workers)
	var slots []*types.FileRecord

	group.Go(func() error {
		defer close(entries)
		return treeWalker.Walk(scanCtx, func(entry types.TreeEntry) error {
			select {
			case <-scanCtx.Done():
				return scanCtx.Err()
			case entries <- entry:
				return nil
			}
		})
	})

	group.Go(func() error {
		for entry := range entries {
			if !assembler.Add(entry) {
				continue
			}
			slot := &types.FileRecord{}
			slots = append(slots, slot)
			candidate := entry
			readers.Go(func() error {
				if err := readCtx.Err(); err != nil {
					return err
				}
				*slot = fileReader.Read(candidate)
				return nil
			})
		}
		return readers.Wait()
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	records := make([]types.FileRecord, len(slots))
	for index, slot := range slots {
		records[index] = *slot
	}
	return records, nil
}

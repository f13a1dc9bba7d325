// Package walker traverses a scan root depth first in byte-wise name order.
package walker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/ingest/internal/pattern"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	rootRelativePath         = "."
	notDirectoryMessage      = "not a directory"
	irregularFileDetail      = "not a regular file"
	skipLogMessage           = "skipping path"
	ignoreFileLoadLogMessage = "ignoring unreadable ignore file"
	pathLogField             = "path"
	reasonLogField           = "reason"
	detailLogField           = "detail"
)

var errNotDirectory = errors.New(notDirectoryMessage)

// Visitor receives every entry produced by Walk. Returning an error stops the walk.
type Visitor func(types.TreeEntry) error

// Walker produces TreeEntry values for one scan root.
type Walker struct {
	config  types.ScanConfig
	matcher *pattern.Matcher
	omitted map[string]struct{}
	logger  *zap.Logger
}

// pendingEntry is a classified entry waiting on the worklist. Directories
// carry the canonical path used for cycle detection.
type pendingEntry struct {
	entry         types.TreeEntry
	canonicalPath string
}

// New constructs a Walker. A nil logger disables logging.
func New(config types.ScanConfig, matcher *pattern.Matcher, logger *zap.Logger) *Walker {
	omitted := map[string]struct{}{}
	for _, omittedPath := range config.OmittedPaths() {
		omitted[omittedPath] = struct{}{}
	}
	return &Walker{config: config, matcher: matcher, omitted: omitted, logger: utils.LoggerOrNop(logger)}
}

// Walk visits every node beneath the root in depth-first pre-order. Siblings
// are visited in byte-wise name order. Pattern-rejected nodes and nodes that
// could not be traversed are visited with Skip set; excluded directories are
// never listed. Omitted paths are not visited at all. Only a missing root or a root that is not a directory yields
// a *types.FatalScanError.
func (walker *Walker) Walk(ctx context.Context, visit Visitor) error {
	root := walker.config.Root()
	rootInfo, statErr := os.Stat(root)
	if statErr != nil {
		return &types.FatalScanError{Path: root, Err: statErr}
	}
	if !rootInfo.IsDir() {
		return &types.FatalScanError{Path: root, Err: errNotDirectory}
	}
	canonicalRoot, resolveErr := filepath.EvalSymlinks(root)
	if resolveErr != nil {
		canonicalRoot = root
	}

	visited := map[string]struct{}{}
	stack := []pendingEntry{{
		entry: types.TreeEntry{
			RelativePath: rootRelativePath,
			AbsolutePath: root,
			Kind:         types.EntryKindDirectory,
		},
		canonicalPath: canonicalRoot,
	}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current.entry.Kind != types.EntryKindDirectory || current.entry.IsSkipped() {
			if err := walker.emit(visit, current.entry); err != nil {
				return err
			}
			continue
		}

		if _, seen := visited[current.canonicalPath]; seen {
			current.entry.Skip = &types.Skip{Reason: types.SkipReasonSymlinkCycle, Detail: current.canonicalPath}
			if err := walker.emit(visit, current.entry); err != nil {
				return err
			}
			continue
		}
		visited[current.canonicalPath] = struct{}{}

		children, readErr := os.ReadDir(current.entry.AbsolutePath)
		if readErr != nil {
			current.entry.Skip = skipForError(readErr)
			if err := walker.emit(visit, current.entry); err != nil {
				return err
			}
			continue
		}
		if current.entry.RelativePath != rootRelativePath {
			if err := walker.emit(visit, current.entry); err != nil {
				return err
			}
		}
		if walker.config.UseGitignore() {
			if loadErr := walker.matcher.LoadIgnoreFiles(current.entry.RelativePath, current.entry.AbsolutePath); loadErr != nil {
				walker.logger.Warn(ignoreFileLoadLogMessage, zap.String(pathLogField, current.entry.RelativePath), zap.Error(loadErr))
			}
		}

		// os.ReadDir returns entries sorted by name; push in reverse so the
		// smallest name is popped first.
		for index := len(children) - 1; index >= 0; index-- {
			if _, omitted := walker.omitted[filepath.Join(current.entry.AbsolutePath, children[index].Name())]; omitted {
				continue
			}
			stack = append(stack, walker.classify(current, children[index], canonicalRoot))
		}
	}
	return nil
}

func (walker *Walker) emit(visit Visitor, entry types.TreeEntry) error {
	if entry.Skip != nil {
		walker.logger.Debug(skipLogMessage,
			zap.String(pathLogField, entry.RelativePath),
			zap.String(reasonLogField, string(entry.Skip.Reason)),
			zap.String(detailLogField, entry.Skip.Detail))
	}
	return visit(entry)
}

// classify turns a directory entry into a pending entry, consulting the
// matcher and resolving symbolic links.
func (walker *Walker) classify(parent pendingEntry, child fs.DirEntry, canonicalRoot string) pendingEntry {
	name := child.Name()
	entry := types.TreeEntry{
		RelativePath: utils.JoinRelativePath(parent.entry.RelativePath, name),
		AbsolutePath: filepath.Join(parent.entry.AbsolutePath, name),
		Depth:        parent.entry.Depth + 1,
		Kind:         types.EntryKindFile,
	}

	info, infoErr := child.Info()
	if infoErr != nil {
		entry.Skip = skipForError(infoErr)
		return pendingEntry{entry: entry}
	}

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return walker.classifySymlink(entry, canonicalRoot)
	case info.IsDir():
		entry.Kind = types.EntryKindDirectory
		if skip := walker.decide(entry.RelativePath, true); skip != nil {
			entry.Skip = skip
			return pendingEntry{entry: entry}
		}
		return pendingEntry{entry: entry, canonicalPath: filepath.Join(parent.canonicalPath, name)}
	default:
		entry.Size = info.Size()
		if skip := walker.decide(entry.RelativePath, false); skip != nil {
			entry.Skip = skip
			return pendingEntry{entry: entry}
		}
		if !info.Mode().IsRegular() {
			entry.Skip = &types.Skip{Reason: types.SkipReasonUnreadable, Detail: irregularFileDetail}
		}
		return pendingEntry{entry: entry}
	}
}

func (walker *Walker) classifySymlink(entry types.TreeEntry, canonicalRoot string) pendingEntry {
	entry.Kind = types.EntryKindSymlink
	if target, readErr := os.Readlink(entry.AbsolutePath); readErr == nil {
		entry.LinkTarget = filepath.ToSlash(target)
	}

	targetInfo, statErr := os.Stat(entry.AbsolutePath)
	pointsToDirectory := statErr == nil && targetInfo.IsDir()
	if skip := walker.decide(entry.RelativePath, pointsToDirectory); skip != nil {
		entry.Skip = skip
		return pendingEntry{entry: entry}
	}

	if !walker.config.FollowSymlinks() {
		entry.Skip = &types.Skip{Reason: types.SkipReasonSymlinkNotFollowed, Detail: entry.LinkTarget}
		return pendingEntry{entry: entry}
	}

	resolved, resolveErr := filepath.EvalSymlinks(entry.AbsolutePath)
	if resolveErr != nil {
		entry.Skip = skipForError(resolveErr)
		return pendingEntry{entry: entry}
	}
	if !utils.IsWithinRoot(resolved, canonicalRoot) {
		entry.Skip = &types.Skip{Reason: types.SkipReasonSymlinkOutsideRoot, Detail: entry.LinkTarget}
		return pendingEntry{entry: entry}
	}
	if statErr != nil {
		entry.Skip = skipForError(statErr)
		return pendingEntry{entry: entry}
	}

	if pointsToDirectory {
		entry.Kind = types.EntryKindDirectory
		return pendingEntry{entry: entry, canonicalPath: resolved}
	}
	entry.Kind = types.EntryKindFile
	entry.Size = targetInfo.Size()
	if !targetInfo.Mode().IsRegular() {
		entry.Skip = &types.Skip{Reason: types.SkipReasonUnreadable, Detail: irregularFileDetail}
	}
	return pendingEntry{entry: entry}
}

func (walker *Walker) decide(relativePath string, isDirectory bool) *types.Skip {
	decision := walker.matcher.Decide(relativePath, isDirectory)
	if decision.Include {
		return nil
	}
	return &types.Skip{Reason: decision.Reason, Detail: decision.Pattern}
}

func skipForError(err error) *types.Skip {
	if errors.Is(err, fs.ErrPermission) {
		return &types.Skip{Reason: types.SkipReasonPermissionDenied, Detail: err.Error()}
	}
	return &types.Skip{Reason: types.SkipReasonUnreadable, Detail: err.Error()}
}

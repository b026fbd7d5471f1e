package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// MaxRevisions caps the number of revisions notified about in one run.
const MaxRevisions = 100

const defaultConcurrency = 4

// RevisionSource reports the parents of a revision.
type RevisionSource interface {
	Parents(ctx context.Context, rev string) ([]string, error)
}

// PatchSource fetches the raw mbox patch of a revision.
type PatchSource interface {
	FetchPatch(ctx context.Context, repo, rev string) (string, error)
}

// CheckpointStore persists the last revision notified about per ref.
// GetCheckpoint returns ok=false if nothing has been stored under key.
type CheckpointStore interface {
	GetCheckpoint(ctx context.Context, key string) (rev string, ok bool, err error)
	SetCheckpoint(ctx context.Context, key, rev string) error
}

// Message is a rendered notification ready for delivery.
type Message struct {
	Revision string
	Subject  string
	ReplyTo  string
	HTML     string
}

// Mailer delivers notification messages.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// CheckpointKey derives the checkpoint name for a ref.
func CheckpointKey(ref string) string {
	return strings.ReplaceAll(ref, "/", "@") + "-lastrev.txt"
}

// FormatSubject prefixes a commit title with the short repository name.
func FormatSubject(repo, title string) string {
	name := repo
	if _, after, ok := strings.Cut(repo, "/"); ok {
		name = after
	}
	return "[" + name + "] " + title
}

// CollectRevisions returns the revisions after oldRev up to and including
// newRev, oldest first. History is walked along first parents only, so
// commits reachable solely through a merge's other parents are not listed.
// An empty oldRev yields just newRev.
func CollectRevisions(ctx context.Context, src RevisionSource, oldRev, newRev string, logger *slog.Logger) ([]string, error) {
	if oldRev == "" {
		return []string{newRev}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	var revs []string
	rev := newRev
	for rev != oldRev {
		if len(revs) == MaxRevisions {
			logger.Warn("too many commits since checkpoint, only notifying on the most recent",
				"limit", MaxRevisions, "old_rev", oldRev, "new_rev", newRev)
			break
		}
		revs = append(revs, rev)

		parents, err := src.Parents(ctx, rev)
		if err != nil {
			return nil, fmt.Errorf("get parents of %s: %w", rev, err)
		}
		if len(parents) == 0 {
			logger.Warn("checkpoint not found in first-parent history", "old_rev", oldRev, "new_rev", newRev)
			break
		}
		rev = parents[0]
	}

	slices.Reverse(revs)
	return revs, nil
}

// NotifierConfig holds the per-run settings of a Notifier.
type NotifierConfig struct {
	Repo        string // owner/name
	Ref         string // full ref, e.g. refs/heads/main
	Revision    string // revision that triggered the run
	Template    string // template text
	Concurrency int
}

// RunResult summarizes a notification run.
type RunResult struct {
	PreviousRevision string
	Revisions        []string
	Sent             int
	UpToDate         bool
}

// Notifier sends one notification per revision since the last checkpoint.
type Notifier struct {
	cfg         NotifierConfig
	revisions   RevisionSource
	patches     PatchSource
	checkpoints CheckpointStore
	mailer      Mailer
	logger      *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(cfg NotifierConfig, revisions RevisionSource, patches PatchSource, checkpoints CheckpointStore, mailer Mailer, logger *slog.Logger) *Notifier {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		cfg:         cfg,
		revisions:   revisions,
		patches:     patches,
		checkpoints: checkpoints,
		mailer:      mailer,
		logger:      logger,
	}
}

// Run performs one notification cycle. The checkpoint is advanced to the
// last revision whose message was delivered.
func (n *Notifier) Run(ctx context.Context) (*RunResult, error) {
	key := CheckpointKey(n.cfg.Ref)
	res := &RunResult{}

	oldRev, ok, err := n.checkpoints.GetCheckpoint(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", key, err)
	}
	if !ok {
		oldRev = ""
	}
	res.PreviousRevision = oldRev
	n.logger.Debug("checkpoint", "key", key, "old_rev", oldRev, "new_rev", n.cfg.Revision)

	if oldRev == n.cfg.Revision {
		n.logger.Warn("notification was already sent for the new commit, giving up happily", "rev", n.cfg.Revision)
		res.UpToDate = true
		return res, nil
	}

	revs, err := CollectRevisions(ctx, n.revisions, oldRev, n.cfg.Revision, n.logger)
	if err != nil {
		return nil, err
	}
	res.Revisions = revs
	n.logger.Info("collected revisions", "count", len(revs))

	msgs, err := n.prepare(ctx, revs)
	if err != nil {
		return res, err
	}

	for i, msg := range msgs {
		if err := n.mailer.Send(ctx, msg); err != nil {
			if i > 0 {
				if cerr := n.checkpoints.SetCheckpoint(ctx, key, revs[i-1]); cerr != nil {
					n.logger.Error("failed to save checkpoint", "key", key, "error", cerr)
				}
			}
			return res, fmt.Errorf("send notification for %s: %w", msg.Revision, err)
		}
		res.Sent++
		n.logger.Info("notification sent", "rev", msg.Revision, "subject", msg.Subject)
	}

	if err := n.checkpoints.SetCheckpoint(ctx, key, revs[len(revs)-1]); err != nil {
		return res, fmt.Errorf("save checkpoint %s: %w", key, err)
	}
	return res, nil
}

// prepare fetches and renders all revisions concurrently, keeping their order.
func (n *Notifier) prepare(ctx context.Context, revs []string) ([]*Message, error) {
	msgs := make([]*Message, len(revs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.cfg.Concurrency)

	for i, rev := range revs {
		g.Go(func() error {
			msg, err := n.buildMessage(ctx, rev)
			if err != nil {
				return err
			}
			msgs[i] = msg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (n *Notifier) buildMessage(ctx context.Context, rev string) (*Message, error) {
	raw, err := n.patches.FetchPatch(ctx, n.cfg.Repo, rev)
	if err != nil {
		return nil, fmt.Errorf("fetch patch %s: %w", rev, err)
	}

	patch, err := ParsePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("parse patch %s: %w", rev, err)
	}
	n.logger.Debug("parsed patch", "rev", rev, "files", len(patch.Diff), "title", patch.Header.Title)

	out, err := Render(patch, n.cfg.Template, RenderContext{RepoName: n.cfg.Repo, RefName: n.cfg.Ref})
	if err != nil {
		return nil, fmt.Errorf("render patch %s: %w", rev, err)
	}

	return &Message{
		Revision: rev,
		Subject:  FormatSubject(n.cfg.Repo, patch.Header.Title),
		ReplyTo:  out.Author,
		HTML:     out.HTML,
	}, nil
}

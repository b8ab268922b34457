package transport

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/act3-ai/go-common/pkg/logger"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sourcegraph/conc/pool"

	"github.com/act3-ai/forge/internal/git"
	"github.com/act3-ai/forge/internal/progress"
	"github.com/act3-ai/forge/internal/refs"
	"github.com/act3-ai/forge/internal/storage"
	"github.com/act3-ai/forge/pkg/protocol/wire"
)

// defaultProgressInterval paces side-band progress messages during pack
// ingestion.
const defaultProgressInterval = time.Second

// errUnpack is the per-ref reason reported when the pack could not be
// ingested. The wording matches native receive-pack so clients render it the
// same way.
var errUnpack = errors.New("n/a (unpacker error)")

// RefStatus is the outcome of one ref-update command in a push.
type RefStatus struct {
	Command refs.Command
	Err     error
}

// OK reports whether the ref was updated.
func (s RefStatus) OK() bool { return s.Err == nil }

// Ref names the ref the command addressed.
func (s RefStatus) Ref() plumbing.ReferenceName { return s.Command.Name }

// Receiver handles push (receive-pack) requests against locally materialized
// repositories, persisting incoming packs to durable storage.
type Receiver struct {
	Runner *git.Runner
	Store  storage.Store

	// ProgressInterval paces side-band progress messages. Zero means
	// [defaultProgressInterval].
	ProgressInterval time.Duration
}

// NewReceiver returns a [Receiver] executing subprocesses with runner and
// persisting packs to store.
func NewReceiver(runner *git.Runner, store storage.Store) *Receiver {
	return &Receiver{Runner: runner, Store: store}
}

// Serve runs one push: it splits body into the ref-update command list and
// the trailing packfile, ingests the pack, applies each command, and writes
// the status report to out. The repository's objects live under storagePrefix
// in the durable store and at repoPath locally.
//
// The returned statuses mirror the report sent to the client, one per
// distinct ref. Pack ingestion failure means no ref is touched and every ref
// reports failure.
func (r *Receiver) Serve(ctx context.Context, repoPath, storagePrefix string, body io.Reader, out io.Writer) ([]RefStatus, error) {
	log := logger.FromContext(ctx)

	pr := wire.NewReader(body)
	cmds, err := readCommands(pr)
	if err != nil {
		return nil, err
	}
	if len(cmds) == 0 {
		// client had nothing to push
		return nil, nil
	}

	// capabilities ride on the first command only
	caps := cmds[0].Caps
	sideband := slices.Contains(caps, "side-band-64k") || slices.Contains(caps, "side-band")
	// the v1 status lines are a valid prefix of the v2 format, one report
	// serves both negotiations
	reportStatus := slices.Contains(caps, "report-status") || slices.Contains(caps, "report-status-v2")

	pack := bufio.NewReader(pr.Remainder())
	havePack := false
	if _, err := pack.Peek(1); err == nil {
		havePack = true
	} else if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading pack stream: %w", err)
	}

	pw := wire.NewWriter(out)

	var packHash string
	var unpackErr error
	if havePack {
		counted := progress.NewReader(pack)

		var reporter *progress.Reporter
		if sideband {
			interval := r.ProgressInterval
			if interval <= 0 {
				interval = defaultProgressInterval
			}
			reporter = progress.NewReporter(ctx, counted, interval, func(p progress.Progress) {
				msg := fmt.Sprintf("Receiving pack: %d bytes\r", p.Total)
				if err := pw.WriteSidebandString(wire.BandProgress, msg); err != nil {
					log.DebugContext(ctx, "writing progress", slog.String("error", err.Error()))
				}
			})
		}

		packHash, unpackErr = r.ingestPack(ctx, repoPath, storagePrefix, counted)

		// the side-band is single-writer, reporting must end before the
		// status report starts
		if reporter != nil {
			reporter.Stop()
		}
	}

	statuses := r.applyCommands(ctx, repoPath, cmds, unpackErr)

	if reportStatus {
		if err := writeReport(pw, out, sideband, unpackErr, statuses); err != nil {
			return statuses, fmt.Errorf("writing status report: %w", err)
		}
	}

	if unpackErr != nil {
		return statuses, fmt.Errorf("ingesting pack: %w", unpackErr)
	}

	if packHash != "" {
		// drop the quarantine marker now that refs point into the pack
		if err := os.Remove(filepath.Join(git.PackDir(repoPath), "pack-"+packHash+".keep")); err != nil && !os.IsNotExist(err) {
			log.DebugContext(ctx, "removing keep file", slog.String("error", err.Error()))
		}
	}

	return statuses, nil
}

// readCommands drains the framed command list up to its terminating flush.
func readCommands(pr *wire.Reader) ([]refs.Command, error) {
	var cmds []refs.Command
	for {
		payload, err := pr.ReadLine()
		switch {
		case errors.Is(err, wire.ErrFlush):
			return cmds, nil
		case errors.Is(err, io.EOF):
			if len(cmds) == 0 {
				// an empty request is a no-op, not an error
				return nil, nil
			}
			return nil, fmt.Errorf("command list not terminated: %w", io.ErrUnexpectedEOF)
		case err != nil:
			return nil, fmt.Errorf("reading command list: %w", err)
		}

		if len(bytes.TrimSpace(payload)) == 0 {
			continue
		}
		cmd, err := refs.ParseCommand(payload)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
}

// ingestPack fans the pack stream out to durable storage and a native
// index-pack subprocess, byte-identical and in order, then promotes the
// stored object to its content-addressed key. Completion requires both sinks
// to finish, either failure aborts the other.
func (r *Receiver) ingestPack(ctx context.Context, repoPath, storagePrefix string, pack io.Reader) (string, error) {
	log := logger.FromContext(ctx)

	tmpKey := storagePrefix + "/objects/pack/" + incomingName()

	storeR, storeW := io.Pipe()
	idxR, idxW := io.Pipe()
	var idxOut bytes.Buffer

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		mw := io.MultiWriter(storeW, idxW)
		_, err := io.Copy(mw, pack)
		storeW.CloseWithError(err)
		idxW.CloseWithError(err)
		if err != nil {
			return fmt.Errorf("streaming pack: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		_, err := r.Store.Put(ctx, tmpKey, storeR)
		// unblock the tee if the upload died mid-stream
		storeR.CloseWithError(err)
		if err != nil {
			return fmt.Errorf("uploading pack: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		err := r.Runner.Exec(ctx, git.ExecSpec{
			Dir:    repoPath,
			Args:   []string{"index-pack", "--stdin", "--fix-thin", "--keep"},
			Stdin:  idxR,
			Stdout: &idxOut,
		})
		idxR.CloseWithError(err)
		if err != nil {
			return fmt.Errorf("indexing pack: %w", err)
		}
		return nil
	})

	if err := p.Wait(); err != nil {
		// the temporary object is garbage now, losing it is harmless
		if delErr := r.Store.Delete(context.WithoutCancel(ctx), tmpKey); delErr != nil {
			log.DebugContext(ctx, "discarding partial pack upload", slog.String("error", delErr.Error()))
		}
		return "", err
	}

	hash, err := parsePackHash(idxOut.String())
	if err != nil {
		return "", err
	}

	// index-pack already materialized pack and index under the repository's
	// own objects/pack, local invocations see the new objects immediately.
	// The index is uploaded before the pack is promoted so the final
	// pack-<hash>.pack key never exists without its .idx beside it.
	finalBase := storagePrefix + "/objects/pack/pack-" + hash
	idxFile, err := os.Open(filepath.Join(git.PackDir(repoPath), "pack-"+hash+".idx"))
	if err != nil {
		return hash, fmt.Errorf("opening pack index: %w", err)
	}
	defer idxFile.Close()
	if _, err := r.Store.Put(ctx, finalBase+".idx", idxFile); err != nil {
		return hash, fmt.Errorf("uploading pack index: %w", err)
	}

	if err := r.Store.Move(ctx, tmpKey, finalBase+".pack"); err != nil {
		if delErr := r.Store.Delete(context.WithoutCancel(ctx), finalBase+".idx"); delErr != nil {
			log.DebugContext(ctx, "discarding orphaned pack index", slog.String("error", delErr.Error()))
		}
		return hash, fmt.Errorf("promoting pack: %w", err)
	}

	log.InfoContext(ctx, "ingested pack", slog.String("hash", hash))
	return hash, nil
}

// applyCommands runs each distinct ref update, or marks all of them failed
// when the pack never landed. Later duplicates of a ref are dropped, the
// report carries one line per ref.
func (r *Receiver) applyCommands(ctx context.Context, repoPath string, cmds []refs.Command, unpackErr error) []RefStatus {
	log := logger.FromContext(ctx)

	statuses := make([]RefStatus, 0, len(cmds))
	seen := make(map[plumbing.ReferenceName]bool, len(cmds))
	for _, cmd := range cmds {
		if seen[cmd.Name] {
			continue
		}
		seen[cmd.Name] = true

		if unpackErr != nil {
			statuses = append(statuses, RefStatus{Command: cmd, Err: errUnpack})
			continue
		}

		err := refs.Apply(ctx, r.Runner, repoPath, cmd)
		if err != nil {
			log.InfoContext(ctx, "ref update rejected",
				slog.String("ref", cmd.Name.String()),
				slog.String("reason", refs.Reason(err)))
		}
		statuses = append(statuses, RefStatus{Command: cmd, Err: err})
	}
	return statuses
}

// writeReport emits the report-status block, side-band wrapped when the
// client negotiated it.
func writeReport(pw *wire.Writer, out io.Writer, sideband bool, unpackErr error, statuses []RefStatus) error {
	var buf bytes.Buffer
	inner := wire.NewWriter(&buf)

	unpack := "unpack ok\n"
	if unpackErr != nil {
		unpack = "unpack " + refs.Reason(unpackErr) + "\n"
	}
	if err := inner.WriteLineString(unpack); err != nil {
		return err
	}
	for _, st := range statuses {
		line := "ok " + st.Ref().String() + "\n"
		if st.Err != nil {
			line = fmt.Sprintf("ng %s %s\n", st.Ref(), refs.Reason(st.Err))
		}
		if err := inner.WriteLineString(line); err != nil {
			return err
		}
	}
	if err := inner.WriteFlush(); err != nil {
		return err
	}

	if !sideband {
		_, err := out.Write(buf.Bytes())
		return err
	}
	if err := pw.WriteSideband(wire.BandData, buf.Bytes()); err != nil {
		return err
	}
	return pw.WriteFlush()
}

// parsePackHash extracts the content hash from index-pack's report line,
// "keep\t<hash>" with the keep flag, "pack\t<hash>" without.
func parsePackHash(out string) (string, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	fields := strings.Fields(line)
	if len(fields) != 2 || (fields[0] != "keep" && fields[0] != "pack") {
		return "", fmt.Errorf("unexpected index-pack output %q", line)
	}
	hash := fields[1]
	if !plumbing.IsHash(hash) {
		return "", fmt.Errorf("index-pack reported malformed hash %q", hash)
	}
	return hash, nil
}

// incomingName names the temporary storage key for a pack still being
// validated.
func incomingName() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return "incoming-" + hex.EncodeToString(b[:]) + ".pack"
}

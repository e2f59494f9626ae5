package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/client/resource"
	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/dustin/go-humanize"
)

const historyLimit = 20

var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	confirm       = Confirm
	readFile      = os.ReadFile
)

// Login prompts for credentials and opens a session. Downloads started in
// an earlier session are picked up right away.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, username, password); err != nil {
		return err
	}
	if a.currentUser() != username {
		a.transferService.Reset()
	}
	a.setUser(username)
	printlnFn("Logged in as", username)

	if err := a.transferService.Refresh(ctx); err != nil {
		a.log.Warn(ctx, "job sync after login failed", "error", err)
	}
	return nil
}

// Logout ends the session. Open views are released and the job registry is
// dropped, so nothing keeps polling on behalf of the old user.
func (a *App) Logout(ctx context.Context) error {
	a.fileService.Close(models.ModePreview)
	a.fileService.Close(models.ModeDownload)
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.transferService.Reset()
	a.setUser("")
	printlnFn("Logged out")
	return nil
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("upload <path>")
	}
	data, err := readFile(args[0])
	if err != nil {
		return err
	}
	return a.submit(ctx, models.LocalFile{Name: filepath.Base(args[0]), Data: data})
}

func (a *App) Torrent(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("torrent <path>")
	}
	data, err := readFile(args[0])
	if err != nil {
		return err
	}
	req := models.TorrentFile{Name: filepath.Base(args[0]), Metadata: data}
	ok, err := confirm(a.reader, fmt.Sprintf("Start torrent download for %s?", req.DisplayName()), a.out)
	if err != nil || !ok {
		return err
	}
	return a.submit(ctx, req)
}

func (a *App) Ed2k(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("ed2k <link>")
	}
	req := models.Ed2kLink{Link: strings.Join(args, " ")}
	ok, err := confirm(a.reader, fmt.Sprintf("Start ed2k download for %s?", req.DisplayName()), a.out)
	if err != nil || !ok {
		return err
	}
	return a.submit(ctx, req)
}

func (a *App) submit(ctx context.Context, req models.IngestionRequest) error {
	out, err := a.transferService.Submit(ctx, req)
	if err != nil {
		return err
	}
	if out.JobID != "" {
		printlnFn(fmt.Sprintf("Download %s started for %s", out.JobID, out.Filename))
		return nil
	}
	printlnFn("Uploaded", out.Filename)
	return nil
}

func (a *App) Jobs(_ context.Context) error {
	list := a.transferService.Jobs()
	if len(list) == 0 {
		printlnFn("No downloads")
		return nil
	}
	for _, j := range list {
		printJob(j)
	}
	return nil
}

func printJob(j models.Job) {
	line := fmt.Sprintf("%s  %-7s %-11s %3d%%  %s", j.ID, j.Kind, j.Status, j.Progress, j.Filename)
	if j.Error != "" {
		line += "  (" + j.Error + ")"
	}
	printlnFn(line)
}

// Job fetches one download's current state from the service.
func (a *App) Job(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("job <id>")
	}
	j, err := a.transferService.Job(ctx, args[0])
	if err != nil {
		return err
	}
	printJob(j)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.transferService.Refresh(ctx); err != nil {
		return err
	}
	return a.Jobs(ctx)
}

func (a *App) History(ctx context.Context) error {
	entries, err := a.transferService.History(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printlnFn("No submissions in this session")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%-14s %-7s %-7s %s", humanize.Time(e.CreatedAt), e.Kind, e.Status, e.Filename)
		if e.Error != "" {
			line += ": " + e.Error
		}
		printlnFn(line)
	}
	return nil
}

func (a *App) Files(ctx context.Context) error {
	files, err := a.fileService.List(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		printlnFn("No files")
		return nil
	}
	for _, f := range files {
		line := fmt.Sprintf("%6d  %10s  %-14s %s", f.ID, humanize.Bytes(uint64(f.FileSize)), humanize.Time(f.CreatedAt), f.Filename)
		if f.ShareCode != "" {
			line += "  [shared: " + f.ShareCode + "]"
		}
		printlnFn(line)
	}
	return nil
}

func parseID(args []string, u string) (int64, error) {
	if len(args) != 1 {
		return 0, usage(u)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usage(u)
	}
	return id, nil
}

func parseMode(args []string, def models.RetrievalMode) (models.RetrievalMode, bool) {
	if len(args) == 0 {
		return def, true
	}
	switch m := models.RetrievalMode(args[0]); m {
	case models.ModeDownload, models.ModePreview:
		return m, true
	}
	return "", false
}

// Get downloads a stored file into the sink and frees the buffer.
func (a *App) Get(ctx context.Context, args []string) error {
	id, err := parseID(args, "get <id>")
	if err != nil {
		return err
	}
	h, err := a.fileService.Open(ctx, id, models.ModeDownload)
	if err != nil {
		return err
	}
	return a.save(ctx, h)
}

func (a *App) save(ctx context.Context, h *resource.Handle) error {
	defer a.fileService.Close(models.ModeDownload)
	dst, err := a.fileService.Save(ctx, h)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Saved %s (%s) to %s", h.Filename(), humanize.Bytes(uint64(h.Size())), dst))
	return nil
}

func (a *App) Preview(ctx context.Context, args []string) error {
	id, err := parseID(args, "preview <id>")
	if err != nil {
		return err
	}
	h, err := a.fileService.Open(ctx, id, models.ModePreview)
	if err != nil {
		return err
	}
	return a.show(h)
}

// show prints text previews inline. Other previews stay open until
// "close" or the next preview replaces them.
func (a *App) show(h *resource.Handle) error {
	if models.Classify(h.Filename()) == models.ContentText {
		if _, err := h.WriteTo(a.out); err != nil {
			return err
		}
		fmt.Fprintln(a.out)
		return nil
	}
	ct := h.ContentType()
	if ct == "" {
		ct = string(models.Classify(h.Filename()))
	}
	printlnFn(fmt.Sprintf("Preview of %s ready (%s, %s). Use 'close' to release it.", h.Filename(), ct, humanize.Bytes(uint64(h.Size()))))
	return nil
}

func (a *App) CloseView(_ context.Context, args []string) error {
	mode, ok := parseMode(args, models.ModePreview)
	if !ok {
		return usage("close [preview|download]")
	}
	a.fileService.Close(mode)
	printlnFn("Closed", string(mode))
	return nil
}

func (a *App) Share(ctx context.Context, args []string) error {
	id, err := parseID(args, "share <id>")
	if err != nil {
		return err
	}
	protect, err := confirm(a.reader, "Protect the share with a password?", a.out)
	if err != nil {
		return err
	}
	var password []byte
	if protect {
		if password, err = getPassword("Share password", a.out); err != nil {
			return err
		}
	}
	grant, err := a.fileService.Share(ctx, id, password)
	if err != nil {
		return err
	}
	if grant.HasPassword {
		printlnFn("Share code:", grant.Code, "(password protected)")
	} else {
		printlnFn("Share code:", grant.Code)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(args, "delete <id>")
	if err != nil {
		return err
	}
	ok, err := confirm(a.reader, fmt.Sprintf("Delete file %d?", id), a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.fileService.Delete(ctx, id); err != nil {
		return err
	}
	printlnFn("Deleted", id)
	return nil
}

// Open retrieves a file by share code. The password prompt appears only
// for protected shares.
func (a *App) Open(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return usage("open <code> [preview|download]")
	}
	mode, ok := parseMode(args[1:], models.ModeDownload)
	if !ok {
		return usage("open <code> [preview|download]")
	}
	code := args[0]

	info, err := a.fileService.ShareInfo(ctx, code)
	if err != nil {
		return err
	}
	owner := info.Username
	if owner == "" {
		owner = "unknown"
	}
	printlnFn(fmt.Sprintf("%s (%s) shared by %s %s", info.Filename, humanize.Bytes(uint64(info.FileSize)), owner, humanize.Time(info.CreatedAt)))

	var password []byte
	if info.HasPassword {
		if password, err = getPassword("Share password", a.out); err != nil {
			return err
		}
	}
	h, err := a.fileService.OpenShared(ctx, code, password, mode)
	if err != nil {
		return err
	}
	if mode == models.ModePreview {
		return a.show(h)
	}
	return a.save(ctx, h)
}

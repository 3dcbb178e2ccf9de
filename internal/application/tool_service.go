package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	repo "github.com/aifinder/aifinder-api/internal/domain/repository"
	"github.com/aifinder/aifinder-api/pkg/helpers"
)

var (
	ErrToolNotFound   = errors.New("tool not found")
	ErrToolLimit      = errors.New("saved tool limit reached")
	ErrAlreadySaved   = errors.New("tool already saved")
	ErrNotSaved       = errors.New("tool is not saved")
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderExists   = errors.New("folder already exists")
	ErrFolderLimit    = errors.New("folder limit reached")
	ErrFolderFull     = errors.New("folder is full")
)

type ToolService struct {
	Tools     repo.ToolRepository
	Users     repo.UserRepository
	ES        *elasticsearch.Client
	ESIndex   string
	GCS       *storage.Client
	GCSBucket string
	Logger    *logrus.Logger
}

func NewToolService(tools repo.ToolRepository, users repo.UserRepository, es *elasticsearch.Client, esIndex string, gcs *storage.Client, gcsBucket string, logger *logrus.Logger) *ToolService {
	return &ToolService{
		Tools:     tools,
		Users:     users,
		ES:        es,
		ESIndex:   esIndex,
		GCS:       gcs,
		GCSBucket: gcsBucket,
		Logger:    logger,
	}
}

// ToolInput is one entry of a bulk upload.
type ToolInput struct {
	Title      string   `json:"title" binding:"required,toolname"`
	LogoURL    string   `json:"logoUrl" binding:"required"`
	WebsiteURL string   `json:"websiteUrl" binding:"required"`
	Category   string   `json:"category" binding:"required"`
	About      string   `json:"about" binding:"required"`
	Keywords   []string `json:"keywords" binding:"required,min=5,max=10"`
	ToolType   string   `json:"toolType" binding:"required,tooltype"`
}

// SkippedTool records why one upload entry was not inserted.
type SkippedTool struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

type UploadReport struct {
	Inserted int           `json:"inserted"`
	Skipped  []SkippedTool `json:"skipped,omitempty"`
}

// normalizeURL forces an https scheme on bare domains.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}

// BulkUpload inserts the valid entries and reports the rest per index.
// Duplicate titles are skipped, not failed.
func (s *ToolService) BulkUpload(ctx context.Context, inputs []ToolInput) (*UploadReport, error) {
	report := &UploadReport{}
	for i, in := range inputs {
		if len(in.Keywords) < entity.MinKeywords || len(in.Keywords) > entity.MaxKeywords {
			report.Skipped = append(report.Skipped, SkippedTool{
				Index: i, Title: in.Title,
				Reason: fmt.Sprintf("keywords must have %d to %d entries", entity.MinKeywords, entity.MaxKeywords),
			})
			continue
		}
		if in.ToolType != entity.ToolTypeBrowser && in.ToolType != entity.ToolTypeDownloadable {
			report.Skipped = append(report.Skipped, SkippedTool{
				Index: i, Title: in.Title, Reason: "invalid tool type",
			})
			continue
		}

		t := &entity.Tool{
			Title:      strings.TrimSpace(in.Title),
			LogoURL:    normalizeURL(in.LogoURL),
			WebsiteURL: normalizeURL(in.WebsiteURL),
			Category:   strings.TrimSpace(in.Category),
			About:      strings.TrimSpace(in.About),
			Keywords:   in.Keywords,
			ToolType:   in.ToolType,
			IsActive:   true,
		}
		if err := s.Tools.Insert(ctx, t); err != nil {
			reason := "insert failed"
			if errors.Is(err, repo.ErrDuplicate) {
				reason = "duplicate title"
			} else {
				s.Logger.WithError(err).WithField("title", t.Title).Error("tool insert failed")
			}
			report.Skipped = append(report.Skipped, SkippedTool{Index: i, Title: in.Title, Reason: reason})
			continue
		}
		report.Inserted++
		_ = s.indexTool(ctx, t)
	}
	return report, nil
}

// UploadLogo stores the image in GCS under logos/ and returns its public URL.
func (s *ToolService) UploadLogo(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("logos", id+ext))
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
}

// Like records the like on the user and bumps the counter when the like is
// new. Re-liking is a no-op.
func (s *ToolService) Like(ctx context.Context, clerkID, toolID string) (bool, error) {
	if _, err := s.getTool(ctx, toolID); err != nil {
		return false, err
	}
	changed, err := s.Users.AddLike(ctx, clerkID, toolID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, err
	}
	if changed {
		if err := s.Tools.IncLikeCount(ctx, toolID, 1); err != nil {
			s.Logger.WithError(err).WithField("tool_id", toolID).Warn("like count increment failed")
		}
	}
	return changed, nil
}

func (s *ToolService) Unlike(ctx context.Context, clerkID, toolID string) (bool, error) {
	changed, err := s.Users.RemoveLike(ctx, clerkID, toolID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, err
	}
	if changed {
		if err := s.Tools.IncLikeCount(ctx, toolID, -1); err != nil {
			s.Logger.WithError(err).WithField("tool_id", toolID).Warn("like count decrement failed")
		}
	}
	return changed, nil
}

func (s *ToolService) LikeStatus(ctx context.Context, clerkID, toolID string) (bool, error) {
	u, err := s.getUser(ctx, clerkID)
	if err != nil {
		return false, err
	}
	return u.HasLiked(toolID), nil
}

// Save appends the tool snapshot to the unsorted list, or straight into a
// folder when folderName is given. Entitlements are checked on the loaded
// document.
func (s *ToolService) Save(ctx context.Context, clerkID, toolID, folderName string) error {
	t, err := s.getTool(ctx, toolID)
	if err != nil {
		return err
	}
	u, err := s.getUser(ctx, clerkID)
	if err != nil {
		return err
	}
	if u.HasSaved(t.ID, t.Title) {
		return ErrAlreadySaved
	}
	if !u.CanSaveMoreTools() || u.TotalSavedTools() >= entity.MaxSavedTools {
		return ErrToolLimit
	}

	snap := t.Snapshot(time.Now().UTC())
	if folderName == "" {
		if err := s.Users.PushSavedTool(ctx, clerkID, snap); err != nil {
			return err
		}
	} else {
		f := u.FindFolder(folderName)
		if f == nil {
			return ErrFolderNotFound
		}
		if len(f.Tools) >= entity.MaxToolsPerFolder {
			return ErrFolderFull
		}
		f.Tools = append(f.Tools, snap)
		if err := s.Users.ReplaceFolders(ctx, clerkID, u.Folders); err != nil {
			return err
		}
	}

	if err := s.Tools.IncSaveCountByTitle(ctx, t.Title, 1); err != nil {
		s.Logger.WithError(err).WithField("title", t.Title).Warn("save count increment failed")
	}
	return nil
}

// Unsave removes every reference to the tool from the unsorted list and any
// folder. Works even after the catalog entry is gone.
func (s *ToolService) Unsave(ctx context.Context, clerkID, toolID string) error {
	u, err := s.getUser(ctx, clerkID)
	if err != nil {
		return err
	}

	// The title comes from the stored snapshot so legacy entries without a
	// tool id still match.
	title := ""
	match := func(st entity.SavedTool) bool {
		return (st.ToolID != "" && st.ToolID == toolID) || (title != "" && st.Name == title)
	}
	for _, st := range u.SavedTools {
		if st.ToolID == toolID {
			title = st.Name
		}
	}
	for _, f := range u.Folders {
		for _, st := range f.Tools {
			if st.ToolID == toolID {
				title = st.Name
			}
		}
	}
	if title == "" {
		if t, tErr := s.Tools.GetByID(ctx, toolID); tErr == nil {
			title = t.Title
		}
	}

	removed := false
	changed, err := s.Users.PullSavedTool(ctx, clerkID, toolID, title)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	removed = removed || changed

	foldersChanged := false
	for i := range u.Folders {
		kept := u.Folders[i].Tools[:0]
		for _, st := range u.Folders[i].Tools {
			if match(st) {
				foldersChanged = true
				continue
			}
			kept = append(kept, st)
		}
		u.Folders[i].Tools = kept
	}
	if foldersChanged {
		if err := s.Users.ReplaceFolders(ctx, clerkID, u.Folders); err != nil {
			return err
		}
		removed = true
	}

	if !removed {
		return ErrNotSaved
	}
	if title != "" {
		if err := s.Tools.IncSaveCountByTitle(ctx, title, -1); err != nil {
			s.Logger.WithError(err).WithField("title", title).Warn("save count decrement failed")
		}
	}
	return nil
}

func (s *ToolService) SaveStatus(ctx context.Context, clerkID, toolID string) (bool, error) {
	u, err := s.getUser(ctx, clerkID)
	if err != nil {
		return false, err
	}
	title := ""
	if t, tErr := s.Tools.GetByID(ctx, toolID); tErr == nil {
		title = t.Title
	}
	return u.HasSaved(toolID, title), nil
}

func (s *ToolService) CreateFolder(ctx context.Context, clerkID, name string) error {
	u, err := s.getUser(ctx, clerkID)
	if err != nil {
		return err
	}
	if u.FindFolder(name) != nil {
		return ErrFolderExists
	}
	if !u.CanCreateMoreFolders() {
		return ErrFolderLimit
	}
	u.Folders = append(u.Folders, entity.Folder{
		Name:      name,
		Tools:     []entity.SavedTool{},
		CreatedAt: time.Now().UTC(),
	})
	return s.Users.ReplaceFolders(ctx, clerkID, u.Folders)
}

// DeleteFolder drops the folder and its entries. Save counts for the removed
// entries are decremented best-effort.
func (s *ToolService) DeleteFolder(ctx context.Context, clerkID, name string) error {
	u, err := s.getUser(ctx, clerkID)
	if err != nil {
		return err
	}
	var dropped *entity.Folder
	kept := make([]entity.Folder, 0, len(u.Folders))
	for i := range u.Folders {
		if u.Folders[i].Name == name {
			dropped = &u.Folders[i]
			continue
		}
		kept = append(kept, u.Folders[i])
	}
	if dropped == nil {
		return ErrFolderNotFound
	}
	if err := s.Users.ReplaceFolders(ctx, clerkID, kept); err != nil {
		return err
	}
	for _, st := range dropped.Tools {
		if err := s.Tools.IncSaveCountByTitle(ctx, st.Name, -1); err != nil {
			s.Logger.WithError(err).WithField("title", st.Name).Warn("save count decrement failed")
		}
	}
	return nil
}

func (s *ToolService) ListFolders(ctx context.Context, clerkID string) ([]entity.Folder, error) {
	u, err := s.getUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return u.Folders, nil
}

// MoveToFolder moves an unsorted saved tool into a folder, or saves the tool
// directly into the folder when it was not saved before.
func (s *ToolService) MoveToFolder(ctx context.Context, clerkID, folderName, toolID string) error {
	u, err := s.getUser(ctx, clerkID)
	if err != nil {
		return err
	}
	f := u.FindFolder(folderName)
	if f == nil {
		return ErrFolderNotFound
	}
	if len(f.Tools) >= entity.MaxToolsPerFolder {
		return ErrFolderFull
	}

	// Prefer moving the existing unsorted snapshot.
	var snap *entity.SavedTool
	for i := range u.SavedTools {
		if u.SavedTools[i].ToolID == toolID {
			snap = &u.SavedTools[i]
			break
		}
	}
	if snap != nil {
		moved := *snap
		f.Tools = append(f.Tools, moved)
		if err := s.Users.ReplaceFolders(ctx, clerkID, u.Folders); err != nil {
			return err
		}
		if _, err := s.Users.PullSavedTool(ctx, clerkID, moved.ToolID, moved.Name); err != nil {
			return err
		}
		return nil
	}

	t, err := s.getTool(ctx, toolID)
	if err != nil {
		return err
	}
	if u.HasSaved(t.ID, t.Title) {
		return ErrAlreadySaved
	}
	if !u.CanSaveMoreTools() || u.TotalSavedTools() >= entity.MaxSavedTools {
		return ErrToolLimit
	}
	f.Tools = append(f.Tools, t.Snapshot(time.Now().UTC()))
	if err := s.Users.ReplaceFolders(ctx, clerkID, u.Folders); err != nil {
		return err
	}
	if err := s.Tools.IncSaveCountByTitle(ctx, t.Title, 1); err != nil {
		s.Logger.WithError(err).WithField("title", t.Title).Warn("save count increment failed")
	}
	return nil
}

// RemoveFromFolder takes one entry out of a folder without touching the
// unsorted list.
func (s *ToolService) RemoveFromFolder(ctx context.Context, clerkID, folderName, toolID string) error {
	u, err := s.getUser(ctx, clerkID)
	if err != nil {
		return err
	}
	f := u.FindFolder(folderName)
	if f == nil {
		return ErrFolderNotFound
	}

	// Legacy entries predate the tool id, so fall back to the catalog title.
	title := ""
	if t, tErr := s.Tools.GetByID(ctx, toolID); tErr == nil {
		title = t.Title
	}

	kept := f.Tools[:0]
	found := false
	for _, st := range f.Tools {
		if st.ToolID == toolID || (st.ToolID == "" && title != "" && st.Name == title) {
			found = true
			title = st.Name
			continue
		}
		kept = append(kept, st)
	}
	if !found {
		return ErrNotSaved
	}
	f.Tools = kept
	if err := s.Users.ReplaceFolders(ctx, clerkID, u.Folders); err != nil {
		return err
	}
	if err := s.Tools.IncSaveCountByTitle(ctx, title, -1); err != nil {
		s.Logger.WithError(err).WithField("title", title).Warn("save count decrement failed")
	}
	return nil
}

// CascadeReport summarizes a tool deletion.
type CascadeReport struct {
	ToolID       string   `json:"tool_id"`
	Title        string   `json:"title"`
	UsersMatched int      `json:"users_matched"`
	UsersCleaned int      `json:"users_cleaned"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Delete removes the tool and every user reference to it. The reference query
// runs first and aborts on failure before anything is mutated; the per-user
// scrubs then fan out concurrently and all settle before the catalog entry is
// deleted. Individual scrub failures are collected, not fatal.
func (s *ToolService) Delete(ctx context.Context, toolID string) (*CascadeReport, error) {
	t, err := s.getTool(ctx, toolID)
	if err != nil {
		return nil, err
	}

	users, err := s.Users.FindByToolRef(ctx, t.ID, t.Title)
	if err != nil {
		return nil, err
	}

	report := &CascadeReport{ToolID: t.ID, Title: t.Title, UsersMatched: len(users)}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		cleaned  int
		warnings []string
	)
	for _, u := range users {
		wg.Add(1)
		go func(u *entity.User) {
			defer wg.Done()
			folders := scrubFolders(u.Folders, t.ID, t.Title)
			if err := s.Users.RemoveToolRefs(ctx, u.ID, t.ID, t.Title, folders); err != nil {
				s.Logger.WithError(err).WithFields(logrus.Fields{
					"user_id": u.ID,
					"tool_id": t.ID,
				}).Error("cascade cleanup failed for user")
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("user %s: %v", u.ID, err))
				mu.Unlock()
				return
			}
			mu.Lock()
			cleaned++
			mu.Unlock()
		}(u)
	}
	wg.Wait()

	report.UsersCleaned = cleaned
	report.Warnings = warnings

	if err := s.Tools.Delete(ctx, t.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return report, err
	}
	s.removeFromIndex(ctx, t.ID)

	s.Logger.WithFields(logrus.Fields{
		"tool_id":       t.ID,
		"title":         t.Title,
		"users_cleaned": cleaned,
		"failures":      len(warnings),
	}).Info("tool deleted")
	return report, nil
}

// scrubFolders returns the folders with every reference to the tool removed,
// matching by id when present and by name otherwise. Order and unrelated
// entries are preserved.
func scrubFolders(folders []entity.Folder, toolID, title string) []entity.Folder {
	out := make([]entity.Folder, len(folders))
	for i, f := range folders {
		kept := make([]entity.SavedTool, 0, len(f.Tools))
		for _, st := range f.Tools {
			if (st.ToolID != "" && st.ToolID == toolID) || st.Name == title {
				continue
			}
			kept = append(kept, st)
		}
		out[i] = entity.Folder{Name: f.Name, Tools: kept, CreatedAt: f.CreatedAt}
	}
	return out
}

// Search runs a multi_match query against the tools index.
func (s *ToolService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "about", "keywords", "category"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *ToolService) indexTool(ctx context.Context, t *entity.Tool) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         t.ID,
		"title":      t.Title,
		"about":      t.About,
		"keywords":   t.Keywords,
		"category":   t.Category,
		"tool_type":  t.ToolType,
		"logo_url":   t.LogoURL,
		"website":    t.WebsiteURL,
		"created_at": t.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: t.ID, Body: strings.NewReader(string(b)), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("tool_id", t.ID).Warn("es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("tool_id", t.ID).Warn("es index response error")
	}
	return nil
}

func (s *ToolService) removeFromIndex(ctx context.Context, toolID string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: toolID}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("tool_id", toolID).Warn("es delete failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		s.Logger.WithField("status", res.Status()).WithField("tool_id", toolID).Warn("es delete response error")
	}
}

func (s *ToolService) getTool(ctx context.Context, toolID string) (*entity.Tool, error) {
	t, err := s.Tools.GetByID(ctx, toolID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrToolNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *ToolService) getUser(ctx context.Context, clerkID string) (*entity.User, error) {
	u, err := s.Users.GetByClerkID(ctx, clerkID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

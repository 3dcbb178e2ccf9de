package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aifinder/aifinder-api/internal/domain/entity"
	repo "github.com/aifinder/aifinder-api/internal/domain/repository"
)

func newToolService(tools *fakeToolRepo, users *fakeUserRepo) *ToolService {
	return NewToolService(tools, users, nil, "", nil, "", testLogger())
}

func snapshotOf(t *entity.Tool) entity.SavedTool {
	return t.Snapshot(time.Now().UTC())
}

func TestCascadeDeleteCleansAllReferences(t *testing.T) {
	target := &entity.Tool{ID: "tool_1", Title: "Acme Writer"}
	other := &entity.Tool{ID: "tool_2", Title: "Other Tool"}
	tools := newFakeToolRepo(target, other)

	// One user likes and saves it unsorted; another carries it in two folders
	// plus a like.
	users := newFakeUserRepo(
		&entity.User{
			ClerkID:    "user_a",
			LikedTools: []string{"tool_1", "tool_2"},
			SavedTools: []entity.SavedTool{snapshotOf(target), snapshotOf(other)},
		},
		&entity.User{
			ClerkID:    "user_b",
			LikedTools: []string{"tool_1"},
			Folders: []entity.Folder{
				{Name: "Writing", Tools: []entity.SavedTool{snapshotOf(other), snapshotOf(target)}},
				{Name: "Favorites", Tools: []entity.SavedTool{snapshotOf(target)}},
			},
		},
	)

	svc := newToolService(tools, users)
	report, err := svc.Delete(context.Background(), "tool_1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.UsersMatched)
	assert.Equal(t, 2, report.UsersCleaned)
	assert.Empty(t, report.Warnings)

	_, err = tools.GetByID(context.Background(), "tool_1")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	a, _ := users.GetByClerkID(context.Background(), "user_a")
	assert.Equal(t, []string{"tool_2"}, a.LikedTools)
	require.Len(t, a.SavedTools, 1)
	assert.Equal(t, "Other Tool", a.SavedTools[0].Name)

	b, _ := users.GetByClerkID(context.Background(), "user_b")
	assert.Empty(t, b.LikedTools)
	require.Len(t, b.Folders, 2)
	assert.Equal(t, "Writing", b.Folders[0].Name)
	require.Len(t, b.Folders[0].Tools, 1)
	assert.Equal(t, "Other Tool", b.Folders[0].Tools[0].Name)
	assert.Equal(t, "Favorites", b.Folders[1].Name)
	assert.Empty(t, b.Folders[1].Tools)
}

func TestCascadeDeleteMatchesLegacyEntriesByName(t *testing.T) {
	target := &entity.Tool{ID: "tool_1", Title: "Acme Writer"}
	tools := newFakeToolRepo(target)

	// Entry written before tool ids were stored.
	users := newFakeUserRepo(&entity.User{
		ClerkID:    "user_a",
		SavedTools: []entity.SavedTool{{Name: "Acme Writer"}},
	})

	svc := newToolService(tools, users)
	report, err := svc.Delete(context.Background(), "tool_1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.UsersCleaned)

	a, _ := users.GetByClerkID(context.Background(), "user_a")
	assert.Empty(t, a.SavedTools)
}

func TestCascadeDeleteCollectsPartialFailures(t *testing.T) {
	target := &entity.Tool{ID: "tool_1", Title: "Acme Writer"}
	tools := newFakeToolRepo(target)
	users := newFakeUserRepo(
		&entity.User{ClerkID: "user_a", LikedTools: []string{"tool_1"}},
		&entity.User{ClerkID: "user_b", LikedTools: []string{"tool_1"}},
	)
	users.removeRefsErr = map[string]error{"uid_user_b": fmt.Errorf("write conflict")}

	svc := newToolService(tools, users)
	report, err := svc.Delete(context.Background(), "tool_1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.UsersMatched)
	assert.Equal(t, 1, report.UsersCleaned)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "uid_user_b")

	// The catalog entry is still removed after the fan-out settles.
	_, err = tools.GetByID(context.Background(), "tool_1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestCascadeDeleteUnknownTool(t *testing.T) {
	svc := newToolService(newFakeToolRepo(), newFakeUserRepo())
	_, err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestLikeIsIdempotentAndSymmetric(t *testing.T) {
	tool := &entity.Tool{ID: "tool_1", Title: "Acme Writer"}
	tools := newFakeToolRepo(tool)
	users := newFakeUserRepo(&entity.User{ClerkID: "user_a"})
	svc := newToolService(tools, users)

	changed, err := svc.Like(context.Background(), "user_a", "tool_1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.Like(context.Background(), "user_a", "tool_1")
	require.NoError(t, err)
	assert.False(t, changed)

	got, _ := tools.GetByID(context.Background(), "tool_1")
	assert.EqualValues(t, 1, got.LikeCount)

	liked, err := svc.LikeStatus(context.Background(), "user_a", "tool_1")
	require.NoError(t, err)
	assert.True(t, liked)

	changed, err = svc.Unlike(context.Background(), "user_a", "tool_1")
	require.NoError(t, err)
	assert.True(t, changed)

	// Unliking again neither errors nor drives the counter negative.
	changed, err = svc.Unlike(context.Background(), "user_a", "tool_1")
	require.NoError(t, err)
	assert.False(t, changed)

	got, _ = tools.GetByID(context.Background(), "tool_1")
	assert.EqualValues(t, 0, got.LikeCount)
}

func TestSaveAndUnsave(t *testing.T) {
	tool := &entity.Tool{ID: "tool_1", Title: "Acme Writer"}
	tools := newFakeToolRepo(tool)
	users := newFakeUserRepo(&entity.User{ClerkID: "user_a"})
	svc := newToolService(tools, users)

	require.NoError(t, svc.Save(context.Background(), "user_a", "tool_1", ""))
	assert.ErrorIs(t, svc.Save(context.Background(), "user_a", "tool_1", ""), ErrAlreadySaved)

	got, _ := tools.GetByID(context.Background(), "tool_1")
	assert.EqualValues(t, 1, got.SaveCount)

	saved, err := svc.SaveStatus(context.Background(), "user_a", "tool_1")
	require.NoError(t, err)
	assert.True(t, saved)

	require.NoError(t, svc.Unsave(context.Background(), "user_a", "tool_1"))
	assert.ErrorIs(t, svc.Unsave(context.Background(), "user_a", "tool_1"), ErrNotSaved)

	got, _ = tools.GetByID(context.Background(), "tool_1")
	assert.EqualValues(t, 0, got.SaveCount)
}

func TestSaveEnforcesFreeTierLimit(t *testing.T) {
	tool := &entity.Tool{ID: "tool_new", Title: "One More"}
	tools := newFakeToolRepo(tool)

	full := &entity.User{ClerkID: "user_a"}
	for i := 0; i < entity.FreeToolLimit; i++ {
		full.SavedTools = append(full.SavedTools, entity.SavedTool{
			ToolID: fmt.Sprintf("t%d", i), Name: fmt.Sprintf("Tool %d", i),
		})
	}
	users := newFakeUserRepo(full)

	svc := newToolService(tools, users)
	assert.ErrorIs(t, svc.Save(context.Background(), "user_a", "tool_new", ""), ErrToolLimit)
}

func TestSaveIntoFolderRespectsCap(t *testing.T) {
	tool := &entity.Tool{ID: "tool_new", Title: "One More"}
	tools := newFakeToolRepo(tool)

	folder := entity.Folder{Name: "Writing"}
	for i := 0; i < entity.MaxToolsPerFolder; i++ {
		folder.Tools = append(folder.Tools, entity.SavedTool{
			ToolID: fmt.Sprintf("t%d", i), Name: fmt.Sprintf("Tool %d", i),
		})
	}
	users := newFakeUserRepo(&entity.User{ClerkID: "user_a", Folders: []entity.Folder{folder}})

	svc := newToolService(tools, users)
	assert.ErrorIs(t, svc.Save(context.Background(), "user_a", "tool_new", "Writing"), ErrFolderFull)
	assert.ErrorIs(t, svc.Save(context.Background(), "user_a", "tool_new", "Missing"), ErrFolderNotFound)
}

func TestUnsaveRemovesFolderEntriesToo(t *testing.T) {
	tool := &entity.Tool{ID: "tool_1", Title: "Acme Writer"}
	tools := newFakeToolRepo(tool)
	users := newFakeUserRepo(&entity.User{
		ClerkID:    "user_a",
		SavedTools: []entity.SavedTool{snapshotOf(tool)},
		Folders: []entity.Folder{
			{Name: "Writing", Tools: []entity.SavedTool{snapshotOf(tool)}},
		},
	})

	svc := newToolService(tools, users)
	require.NoError(t, svc.Unsave(context.Background(), "user_a", "tool_1"))

	u, _ := users.GetByClerkID(context.Background(), "user_a")
	assert.Empty(t, u.SavedTools)
	assert.Empty(t, u.Folders[0].Tools)
}

func TestFolderLifecycle(t *testing.T) {
	users := newFakeUserRepo(&entity.User{ClerkID: "user_a"})
	svc := newToolService(newFakeToolRepo(), users)

	require.NoError(t, svc.CreateFolder(context.Background(), "user_a", "Writing"))
	assert.ErrorIs(t, svc.CreateFolder(context.Background(), "user_a", "Writing"), ErrFolderExists)

	require.NoError(t, svc.CreateFolder(context.Background(), "user_a", "Research"))
	require.NoError(t, svc.CreateFolder(context.Background(), "user_a", "Coding"))

	// Free tier caps at three folders.
	assert.ErrorIs(t, svc.CreateFolder(context.Background(), "user_a", "Extra"), ErrFolderLimit)

	folders, err := svc.ListFolders(context.Background(), "user_a")
	require.NoError(t, err)
	assert.Len(t, folders, 3)

	require.NoError(t, svc.DeleteFolder(context.Background(), "user_a", "Coding"))
	assert.ErrorIs(t, svc.DeleteFolder(context.Background(), "user_a", "Coding"), ErrFolderNotFound)
}

func TestMoveToFolderMovesUnsortedSnapshot(t *testing.T) {
	tool := &entity.Tool{ID: "tool_1", Title: "Acme Writer"}
	tools := newFakeToolRepo(tool)
	users := newFakeUserRepo(&entity.User{
		ClerkID:    "user_a",
		SavedTools: []entity.SavedTool{snapshotOf(tool)},
		Folders:    []entity.Folder{{Name: "Writing"}},
	})

	svc := newToolService(tools, users)
	require.NoError(t, svc.MoveToFolder(context.Background(), "user_a", "Writing", "tool_1"))

	u, _ := users.GetByClerkID(context.Background(), "user_a")
	assert.Empty(t, u.SavedTools)
	require.Len(t, u.Folders[0].Tools, 1)
	assert.Equal(t, "Acme Writer", u.Folders[0].Tools[0].Name)

	// Moving did not double-count the save.
	got, _ := tools.GetByID(context.Background(), "tool_1")
	assert.EqualValues(t, 0, got.SaveCount)
}

func TestRemoveFromFolder(t *testing.T) {
	tool := &entity.Tool{ID: "tool_1", Title: "Acme Writer"}
	tools := newFakeToolRepo(tool)
	tools.tools["tool_1"].SaveCount = 1
	users := newFakeUserRepo(&entity.User{
		ClerkID: "user_a",
		Folders: []entity.Folder{{Name: "Writing", Tools: []entity.SavedTool{snapshotOf(tool)}}},
	})

	svc := newToolService(tools, users)
	require.NoError(t, svc.RemoveFromFolder(context.Background(), "user_a", "Writing", "tool_1"))

	u, _ := users.GetByClerkID(context.Background(), "user_a")
	assert.Empty(t, u.Folders[0].Tools)

	got, _ := tools.GetByID(context.Background(), "tool_1")
	assert.EqualValues(t, 0, got.SaveCount)

	assert.ErrorIs(t, svc.RemoveFromFolder(context.Background(), "user_a", "Writing", "tool_1"), ErrNotSaved)
}

func TestBulkUploadReportsSkips(t *testing.T) {
	existing := &entity.Tool{ID: "tool_1", Title: "Taken"}
	tools := newFakeToolRepo(existing)
	svc := newToolService(tools, newFakeUserRepo())

	keywords := []string{"one", "two", "three", "four", "five"}
	report, err := svc.BulkUpload(context.Background(), []ToolInput{
		{Title: "Fresh", LogoURL: "cdn.example.com/a.png", WebsiteURL: "fresh.example.com",
			Category: "writing", About: "Drafts text.", Keywords: keywords, ToolType: "browser"},
		{Title: "Taken", LogoURL: "https://cdn.example.com/b.png", WebsiteURL: "https://taken.example.com",
			Category: "writing", About: "Duplicate.", Keywords: keywords, ToolType: "browser"},
		{Title: "Short", LogoURL: "https://cdn.example.com/c.png", WebsiteURL: "https://short.example.com",
			Category: "writing", About: "Too few keywords.", Keywords: []string{"one"}, ToolType: "browser"},
		{Title: "Weird", LogoURL: "https://cdn.example.com/d.png", WebsiteURL: "https://weird.example.com",
			Category: "writing", About: "Bad type.", Keywords: keywords, ToolType: "desktop"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	require.Len(t, report.Skipped, 3)
	assert.Equal(t, "duplicate title", report.Skipped[0].Reason)
	assert.Equal(t, 1, report.Skipped[0].Index)

	// Bare domains were normalized to https.
	fresh, err := tools.GetByTitle(context.Background(), "Fresh")
	require.NoError(t, err)
	assert.Equal(t, "https://fresh.example.com", fresh.WebsiteURL)
	assert.Equal(t, "https://cdn.example.com/a.png", fresh.LogoURL)
}

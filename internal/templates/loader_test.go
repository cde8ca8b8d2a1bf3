package templates

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"padws/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upsertCall captures the arguments the loader hands to the template
// repository.
type upsertCall struct {
	name        string
	displayName string
	data        json.RawMessage
}

// fakeDB implements store.DB and records template upserts.
type fakeDB struct {
	calls []upsertCall
}

type fakeRow struct {
	call upsertCall
}

func (r fakeRow) Scan(dest ...any) error {
	*(dest[0].(*uuid.UUID)) = uuid.New()
	*(dest[1].(*string)) = r.call.name
	*(dest[2].(*string)) = r.call.displayName
	*(dest[3].(*json.RawMessage)) = r.call.data
	*(dest[4].(*time.Time)) = time.Now()
	*(dest[5].(*time.Time)) = time.Now()
	return nil
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	call := upsertCall{
		name:        args[1].(string),
		displayName: args[2].(string),
		data:        args[3].(json.RawMessage),
	}
	f.calls = append(f.calls, call)
	return fakeRow{call: call}
}

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestSyncAll(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "kanban.json", `{"appState":{"pad":{"displayName":"Kanban Board"}},"elements":[]}`)
	writeTemplate(t, dir, "blank.json", `{"elements":[]}`)
	writeTemplate(t, dir, "notes.txt", `ignored`)
	writeTemplate(t, dir, "broken.json", `{not json`)

	db := &fakeDB{}
	loader := NewLoader(dir, store.New(db).TemplatePads)

	require.NoError(t, loader.SyncAll(context.Background()))
	require.Len(t, db.calls, 2, "only valid .json files are synced")

	byName := map[string]upsertCall{}
	for _, c := range db.calls {
		byName[c.name] = c
	}

	kanban, ok := byName["kanban"]
	require.True(t, ok)
	assert.Equal(t, "Kanban Board", kanban.displayName)
	assert.JSONEq(t, `{"appState":{"pad":{"displayName":"Kanban Board"}},"elements":[]}`, string(kanban.data))

	blank, ok := byName["blank"]
	require.True(t, ok)
	assert.Equal(t, "Untitled", blank.displayName, "missing display name falls back to Untitled")
}

func TestSyncAllMissingDirIsNotAnError(t *testing.T) {
	db := &fakeDB{}
	loader := NewLoader(filepath.Join(t.TempDir(), "nope"), store.New(db).TemplatePads)

	require.NoError(t, loader.SyncAll(context.Background()))
	assert.Empty(t, db.calls)
}

func TestSyncFile(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "retro.json", `{"appState":{"pad":{"displayName":"Retro"}}}`)

	db := &fakeDB{}
	loader := NewLoader(dir, store.New(db).TemplatePads)

	require.NoError(t, loader.SyncFile(context.Background(), filepath.Join(dir, "retro.json")))
	require.Len(t, db.calls, 1)
	assert.Equal(t, "retro", db.calls[0].name)
	assert.Equal(t, "Retro", db.calls[0].displayName)
}

func TestSyncFileRejectsBadJSON(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bad.json", `{oops`)

	db := &fakeDB{}
	loader := NewLoader(dir, store.New(db).TemplatePads)

	assert.Error(t, loader.SyncFile(context.Background(), filepath.Join(dir, "bad.json")))
	assert.Empty(t, db.calls)
}

package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/chat"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
	inmemdb "github.com/AmelJaballah/SmartLearn-mern-project/storage/database/inmem"
)

var (
	owner    = user.User{ID: "u-1", Roles: []string{user.RoleStudent}}
	stranger = user.User{ID: "u-2", Roles: []string{user.RoleStudent}}
	admin    = user.User{ID: "a-1", Roles: []string{user.RoleAdmin}}
)

func newService(t *testing.T) *chat.Service {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	return chat.NewService(inmemdb.NewChatSessionRepository(db))
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	s, err := svc.Create(ctx, owner, chat.NewSession{Messages: []chat.NewMessage{{Role: chat.RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, chat.DefaultTitle, s.Title)
	require.Len(t, s.Messages, 1)

	_, err = svc.GetByID(ctx, stranger, s.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	_, err = svc.GetByID(ctx, admin, s.ID)
	assert.NoError(t, err)

	s, err = svc.AppendMessages(ctx, owner, s.ID, chat.AppendMessages{Messages: []chat.NewMessage{
		{Role: chat.RoleAssistant, Content: "hello"},
		{Role: chat.RoleUser, Content: "explain limits"},
	}})
	require.NoError(t, err)
	require.Len(t, s.Messages, 3)
	assert.Equal(t, "explain limits", s.Messages[2].Content)

	title := "Calculus help"
	s, err = svc.Update(ctx, owner, s.ID, chat.UpdateSession{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, s.Title)
	assert.Len(t, s.Messages, 3)

	assert.True(t, errors.Is(svc.Delete(ctx, stranger, s.ID), core.ErrNotFound))
	require.NoError(t, svc.Delete(ctx, owner, s.ID))
	list, err := svc.ForUser(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_ForUser(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	first, err := svc.Create(ctx, owner, chat.NewSession{Title: "first"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, chat.NewSession{Title: "second"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, stranger, chat.NewSession{Title: "theirs"})
	require.NoError(t, err)

	// touching a session moves it to the top
	time.Sleep(2 * time.Millisecond)
	_, err = svc.AppendMessages(ctx, owner, first.ID, chat.AppendMessages{Messages: []chat.NewMessage{{Role: chat.RoleUser, Content: "again"}}})
	require.NoError(t, err)

	list, err := svc.ForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Title)
}

func TestNewSession_Validate(t *testing.T) {
	validate, _ := core.NewValidator()

	ns := chat.NewSession{Title: "  t  ", Messages: []chat.NewMessage{{Role: "robot", Content: "x"}}}
	assert.Error(t, ns.Validate(validate))

	ns = chat.NewSession{Title: "  t  ", Messages: []chat.NewMessage{{Role: chat.RoleSystem, Content: "x"}}}
	assert.NoError(t, ns.Validate(validate))
	assert.Equal(t, "t", ns.Title)

	assert.Error(t, (&chat.AppendMessages{}).Validate(validate))
}

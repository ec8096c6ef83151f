package service

import (
	"context"
	"strings"
	"testing"

	"encore/internal/events"
	"encore/internal/models"
	"encore/internal/pagination"
	"encore/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatService_StartOrGetDeduplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateProfile(t, f.db, 1)
	b := testutil.CreateProfile(t, f.db, 2)

	first, created, err := f.chat.StartOrGet(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, b.Handle, first.Other.Handle)
	assert.Nil(t, first.LastMessage)

	again, created, err := f.chat.StartOrGet(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	_, err = f.chat.PostMessage(ctx, b.ID, first.ID, "yo")
	require.NoError(t, err)

	reverse, created, err := f.chat.StartOrGet(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, reverse.ID)
	assert.Equal(t, a.Handle, reverse.Other.Handle)
	require.NotNil(t, reverse.LastMessage)
	assert.Equal(t, "yo", reverse.LastMessage.Body)
}

func TestChatService_StartOrGetRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateProfile(t, f.db, 1)
	b := testutil.CreateProfile(t, f.db, 2)
	testutil.Block(t, f.db, b.ID, a.ID)

	_, _, err := f.chat.StartOrGet(ctx, a.ID, a.ID)
	assertAppError(t, err, models.CodeValidation)

	_, _, err = f.chat.StartOrGet(ctx, a.ID, 9999)
	assertAppError(t, err, models.CodeNotFound)

	_, _, err = f.chat.StartOrGet(ctx, a.ID, b.ID)
	assertAppError(t, err, models.CodeForbidden)

	_, _, err = f.chat.StartOrGet(ctx, 0, b.ID)
	assertAppError(t, err, models.CodeNoActiveProfile)
}

func TestChatService_PostMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateProfile(t, f.db, 1)
	b := testutil.CreateProfile(t, f.db, 2)
	outsider := testutil.CreateProfile(t, f.db, 3)
	conv, _, err := f.chat.StartOrGet(ctx, a.ID, b.ID)
	require.NoError(t, err)

	msg, err := f.chat.PostMessage(ctx, a.ID, conv.ID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Body)
	assert.Equal(t, []string{events.SubjectMessageCreated}, f.publisher.Subjects())

	_, err = f.chat.PostMessage(ctx, outsider.ID, conv.ID, "hi")
	assertAppError(t, err, models.CodeForbidden)

	_, err = f.chat.PostMessage(ctx, a.ID, 4242, "hi")
	assertAppError(t, err, models.CodeNotFound)

	_, err = f.chat.PostMessage(ctx, a.ID, conv.ID, "   ")
	assertAppError(t, err, models.CodeValidation)

	_, err = f.chat.PostMessage(ctx, a.ID, conv.ID, strings.Repeat("z", MaxMessageRunes+1))
	assertAppError(t, err, models.CodeValidation)

	// A block made after the conversation started stops new messages both ways.
	testutil.Block(t, f.db, b.ID, a.ID)
	_, err = f.chat.PostMessage(ctx, a.ID, conv.ID, "still there?")
	assertAppError(t, err, models.CodeForbidden)
	_, err = f.chat.PostMessage(ctx, b.ID, conv.ID, "no")
	assertAppError(t, err, models.CodeForbidden)

	// Existing history stays readable.
	page, err := f.chat.ListMessages(ctx, a.ID, conv.ID, pagination.Request{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}

func TestChatService_ListMessagesMembersOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateProfile(t, f.db, 1)
	b := testutil.CreateProfile(t, f.db, 2)
	outsider := testutil.CreateProfile(t, f.db, 3)
	conv, _, err := f.chat.StartOrGet(ctx, a.ID, b.ID)
	require.NoError(t, err)
	for _, body := range []string{"1", "2", "3"} {
		_, err := f.chat.PostMessage(ctx, a.ID, conv.ID, body)
		require.NoError(t, err)
	}

	page, err := f.chat.ListMessages(ctx, b.ID, conv.ID, pagination.Request{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "1", page.Items[0].Body)
	assert.Equal(t, "2", page.Items[1].Body)
	assert.True(t, page.HasMore)

	_, err = f.chat.ListMessages(ctx, outsider.ID, conv.ID, pagination.Request{Limit: 2})
	assertAppError(t, err, models.CodeForbidden)
}

func TestChatService_ListConversations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := testutil.CreateProfile(t, f.db, 1)
	quiet := testutil.CreateProfile(t, f.db, 2)
	chatty := testutil.CreateProfile(t, f.db, 3)

	quietConv, _, err := f.chat.StartOrGet(ctx, me.ID, quiet.ID)
	require.NoError(t, err)
	chattyConv, _, err := f.chat.StartOrGet(ctx, chatty.ID, me.ID)
	require.NoError(t, err)
	_, err = f.chat.PostMessage(ctx, chatty.ID, chattyConv.ID, "ping")
	require.NoError(t, err)
	_, err = f.chat.PostMessage(ctx, me.ID, chattyConv.ID, "pong")
	require.NoError(t, err)

	convs, err := f.chat.ListConversations(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, chattyConv.ID, convs[0].ID)
	assert.Equal(t, chatty.Handle, convs[0].Other.Handle)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "pong", convs[0].LastMessage.Body)
	assert.Equal(t, quietConv.ID, convs[1].ID)
	assert.Nil(t, convs[1].LastMessage)
	assert.Nil(t, convs[1].LastMessageAt)

	empty, err := f.chat.ListConversations(ctx, quiet.ID+100)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

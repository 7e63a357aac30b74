// ABOUTME: Tests for the Bot API client
// ABOUTME: Uses httptest servers standing in for api.telegram.org

package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottesttoken/getMe", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"id": 42, "is_bot": true, "username": "eyecandybot"},
		})
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "testtoken")
	me, err := api.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), me.ID)
	assert.Equal(t, "eyecandybot", me.Username)
}

func TestGetUpdates_AdvancesOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{"update_id": 100, "message": map[string]any{"message_id": 1, "text": "hi", "chat": map[string]any{"id": 5}}},
				{"update_id": 101, "message": map[string]any{"message_id": 2, "text": "yo", "chat": map[string]any{"id": 5}}},
			},
		})
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	updates, next, err := api.GetUpdates(context.Background(), 0, time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, int64(102), next)
	assert.Equal(t, "hi", updates[0].Message.Text)
	assert.Equal(t, int64(5), updates[0].Message.Chat.ID)
}

func TestSendMessage_FallsBackOnParseError(t *testing.T) {
	var requests []sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		if req.ParseMode == "MarkdownV2" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"ok":          false,
				"error_code":  400,
				"description": "Bad Request: can't parse entities: Character '!' is reserved",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	err := api.SendMessage(context.Background(), 5, "broken *markup", nil)
	require.NoError(t, err)

	require.Len(t, requests, 2)
	assert.Equal(t, "MarkdownV2", requests[0].ParseMode)
	assert.Equal(t, "", requests[1].ParseMode)
	assert.Equal(t, "broken *markup", requests[1].Text)
	assert.True(t, requests[1].DisableWebPagePreview)
}

func TestSendMessage_NonParseErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"ok": false, "error_code": 403, "description": "Forbidden: bot was blocked by the user",
		})
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	err := api.SendMessage(context.Background(), 5, "hello", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "blocked")
}

func TestSendMessage_IncludesKeyboard(t *testing.T) {
	var got sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	kb := &Keyboard{InlineKeyboard: [][]Button{{{Text: "10", CallbackData: "10"}}}}
	require.NoError(t, api.SendMessage(context.Background(), 5, "pick", kb))

	require.NotNil(t, got.ReplyMarkup)
	assert.Equal(t, "10", got.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
}

func TestAnswerCallbackQuery(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bott/answerCallbackQuery", r.URL.Path)
		var req answerCallbackRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotID = req.CallbackQueryID
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	require.NoError(t, api.AnswerCallbackQuery(context.Background(), "cb42"))
	assert.Equal(t, "cb42", gotID)
}

func TestSendMessage_SkipsEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty text")
	}))
	defer srv.Close()

	api := NewAPI(srv.Client(), srv.URL, "t")
	assert.NoError(t, api.SendMessage(context.Background(), 5, "  ", nil))
}

func TestRequestErrorMessage(t *testing.T) {
	err := &RequestError{StatusCode: 429, Description: "Too Many Requests: retry after 3"}
	assert.Equal(t, "telegram http 429: Too Many Requests: retry after 3", err.Error())
}

package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsExpoPushToken(t *testing.T) {
	assert.True(t, IsExpoPushToken("ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]"))
	assert.True(t, IsExpoPushToken("ExpoPushToken[yyyy]"))
	assert.False(t, IsExpoPushToken("ExponentPushToken[truncated"))
	assert.False(t, IsExpoPushToken("fcm-token-123"))
	assert.False(t, IsExpoPushToken(""))
}

func TestClient_Send_Success(t *testing.T) {
	var received []Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&received)

		resp := map[string]interface{}{
			"data": []Ticket{{Status: "ok", ID: "ticket-1"}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	tickets, err := client.Send(context.Background(), []Message{
		{To: "ExponentPushToken[abc]", Title: "Handy", Body: "test"},
	})

	assert.NoError(t, err)
	assert.Len(t, tickets, 1)
	assert.Equal(t, "ok", tickets[0].Status)
	assert.Len(t, received, 1)
	assert.Equal(t, "ExponentPushToken[abc]", received[0].To)
}

func TestClient_Send_BearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []Ticket{{Status: "ok"}}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", 5*time.Second)
	_, err := client.Send(context.Background(), []Message{{To: "ExponentPushToken[abc]"}})
	assert.NoError(t, err)
}

func TestClient_Send_ChunksByHundred(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		var chunk []Message
		_ = json.NewDecoder(r.Body).Decode(&chunk)
		assert.LessOrEqual(t, len(chunk), 100)

		tickets := make([]Ticket, len(chunk))
		for i := range tickets {
			tickets[i] = Ticket{Status: "ok"}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": tickets})
	}))
	defer server.Close()

	messages := make([]Message, 250)
	for i := range messages {
		messages[i] = Message{To: "ExponentPushToken[abc]"}
	}

	client := NewClient(server.URL, "", 5*time.Second)
	tickets, err := client.Send(context.Background(), messages)

	assert.NoError(t, err)
	assert.Equal(t, 3, requests)
	assert.Len(t, tickets, 250)
}

func TestClient_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.Send(context.Background(), []Message{{To: "ExponentPushToken[abc]"}})
	assert.Error(t, err)
}

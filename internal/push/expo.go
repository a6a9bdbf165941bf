package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Expo принимает до 100 сообщений за один запрос.
const maxChunkSize = 100

// Message описывает одно push сообщение в формате Expo Push API.
type Message struct {
	To        string                 `json:"to"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Sound     string                 `json:"sound,omitempty"`
	Priority  string                 `json:"priority,omitempty"`
	ChannelID string                 `json:"channelId,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Ticket описывает ответ Expo на одно сообщение.
type Ticket struct {
	Status  string `json:"status"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

type sendResponse struct {
	Data   []Ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Client отправляет push сообщения через Expo Push API.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient создаёт клиент Expo. accessToken необязателен.
func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// IsExpoPushToken проверяет форму токена Expo.
func IsExpoPushToken(token string) bool {
	if !strings.HasSuffix(token, "]") {
		return false
	}
	return strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")
}

// Send отправляет сообщения чанками по 100. Ошибка одного чанка не
// прерывает отправку остальных; возвращается последняя ошибка.
func (c *Client) Send(ctx context.Context, messages []Message) ([]Ticket, error) {
	var tickets []Ticket
	var lastErr error

	for start := 0; start < len(messages); start += maxChunkSize {
		end := start + maxChunkSize
		if end > len(messages) {
			end = len(messages)
		}

		chunkTickets, err := c.sendChunk(ctx, messages[start:end])
		if err != nil {
			lastErr = err
			continue
		}
		tickets = append(tickets, chunkTickets...)
	}

	return tickets, lastErr
}

func (c *Client) sendChunk(ctx context.Context, chunk []Message) ([]Ticket, error) {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return nil, fmt.Errorf("push: не удалось сериализовать сообщения: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("push: не удалось создать запрос: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push: запрос к Expo не удался: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("push: не удалось прочитать ответ: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push: Expo вернул статус %d: %s", resp.StatusCode, string(body))
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("push: не удалось распарсить ответ: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return parsed.Data, fmt.Errorf("push: Expo сообщил об ошибке: %s: %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
	}

	return parsed.Data, nil
}

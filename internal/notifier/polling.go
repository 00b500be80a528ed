package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

const (
	pollTimeout = 30 * time.Second
	pollBackoff = 5 * time.Second
)

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK          bool             `json:"ok"`
	Description string           `json:"description"`
	Result      []telegramUpdate `json:"result"`
}

// StartPolling long-polls for commands from the configured chat and replies
// with the handler's answer. Messages from other chats are ignored. Blocks
// until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	if t.BotToken == "" {
		log.Println("[WARN] Telegram polling disabled: no bot token")
		return
	}
	client := &http.Client{Timeout: pollTimeout + 5*time.Second, Transport: t.Client.Transport}
	offset := 0

	for {
		updates, err := t.fetchUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("[INFO] Telegram polling stopped")
				return
			}
			log.Printf("[WARN] polling failed: %v", err)
			if !sleepCtx(ctx, pollBackoff) {
				log.Println("[INFO] Telegram polling stopped")
				return
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if reply, ok := t.dispatch(u, handler); ok && reply != "" {
				if err := t.Send(reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
}

func (t *TelegramNotifier) fetchUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=%d",
		t.APIBase, t.BotToken, offset, int(pollTimeout.Seconds()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates: status %d: %s", resp.StatusCode, result.Description)
	}
	return result.Result, nil
}

// dispatch runs handler for a text message from the configured chat.
func (t *TelegramNotifier) dispatch(u telegramUpdate, handler CommandHandler) (string, bool) {
	if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
		return "", false
	}
	if strconv.FormatInt(u.Message.Chat.ID, 10) != t.ChatID {
		log.Printf("[WARN] ignoring command from chat %d", u.Message.Chat.ID)
		return "", false
	}
	text := strings.TrimSpace(u.Message.Text)
	log.Printf("[INFO] received command: %s", text)
	return handler(text), true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

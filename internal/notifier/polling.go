package notifier

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	// pollWait is how long Telegram holds a getUpdates call open.
	pollWait = 30 * time.Second
	// pollPause follows a failed getUpdates call.
	pollPause = 5 * time.Second
)

// CommandHandler is called when a user command is received. An empty reply sends nothing.
type CommandHandler func(command string) string

// Update is one entry of a getUpdates result. Only text messages are read.
type Update struct {
	ID      int `json:"update_id"`
	Message *struct {
		Text string `json:"text"`
	} `json:"message"`
}

type getUpdatesParams struct {
	Offset         int      `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// StartPolling long-polls getUpdates and answers each text message with the
// handler's reply. It blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	// The client timeout has to outlast the server-side hold.
	client := &http.Client{Timeout: pollWait + 5*time.Second}
	if t.Client != nil {
		client.Transport = t.Client.Transport
	}

	params := getUpdatesParams{Timeout: int(pollWait / time.Second), AllowedUpdates: []string{"message"}}
	for ctx.Err() == nil {
		var updates []Update
		if err := t.call(ctx, client, "getUpdates", params, &updates); err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] Telegram getUpdates failed: %v", err)
			if !sleepContext(ctx, pollPause) {
				break
			}
			continue
		}
		for _, u := range updates {
			params.Offset = u.ID + 1
			t.answer(ctx, u, handler)
		}
	}
	log.Println("[INFO] Telegram polling stopped")
}

func (t *TelegramNotifier) answer(ctx context.Context, u Update, handler CommandHandler) {
	if u.Message == nil {
		return
	}
	command := strings.TrimSpace(u.Message.Text)
	if command == "" {
		return
	}
	log.Printf("[INFO] Telegram command %q (update %d)", command, u.ID)
	reply := handler(command)
	if reply == "" {
		return
	}
	if err := t.SendContext(ctx, reply); err != nil {
		log.Printf("[ERROR] Telegram reply to %q: %v", command, err)
	}
}

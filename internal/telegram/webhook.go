package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Webhook serves inbound updates over HTTP. Malformed payloads are
// acknowledged as no-op successes to avoid redelivery storms; only a
// missing delivery credential fails the event.
type Webhook struct {
	dispatcher *Dispatcher
	configured bool
	server     *http.Server
	log        *zap.Logger
}

func NewWebhook(dispatcher *Dispatcher, configured bool, port int, log *zap.Logger) *Webhook {
	w := &Webhook{dispatcher: dispatcher, configured: configured, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", w.handleUpdate)
	mux.HandleFunc("/", w.handleRoot)

	w.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return w
}

func (w *Webhook) Start() error {
	w.log.Info("webhook server listening", zap.String("addr", w.server.Addr))
	return w.server.ListenAndServe()
}

func (w *Webhook) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.server.Shutdown(ctx)
}

func (w *Webhook) handleRoot(rw http.ResponseWriter, r *http.Request) {
	rw.WriteHeader(http.StatusOK)
	fmt.Fprint(rw, "✅ Bot running")
}

func (w *Webhook) handleUpdate(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !w.configured {
		// Distinct status: nothing downstream can function without a
		// delivery credential.
		w.log.Error("inbound event rejected: bot token not configured")
		writeJSON(rw, http.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": "bot token not configured",
		})
		return
	}

	var upd tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		w.log.Warn("unparseable update payload", zap.Error(err))
		writeJSON(rw, http.StatusOK, map[string]any{"ok": true})
		return
	}

	w.dispatcher.HandleUpdate(r.Context(), upd)
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(rw http.ResponseWriter, status int, body map[string]any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(body)
}

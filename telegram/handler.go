package telegram

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/itzme-challa/TalkStranger-chatbot/contract"
	"github.com/itzme-challa/TalkStranger-chatbot/domain"
)

// SecretHeader carries the shared token Telegram echoes back on every
// webhook delivery when one was registered.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const aboutText = "🤖 TalkStranger pairs you anonymously with another person.\n\n" +
	"/start — go live and get matched\n" +
	"/search — look for a new partner\n" +
	"/stop — end the current conversation"

const unknownCommandText = "I don't know that command. Try /start, /search or /stop."

// Dispatcher is the inbound edge of the runtime.
type Dispatcher interface {
	Dispatch(cmd domain.Command)
}

// WebhookHandler receives Bot API updates over HTTP. Platform commands are
// resolved here, before anything reaches the relay: only plain text ever
// becomes a TextMessage.
type WebhookHandler struct {
	log        *slog.Logger
	dispatcher Dispatcher
	sink       contract.NotificationSink
	secret     string
	validate   *validator.Validate
}

func NewWebhookHandler(log *slog.Logger, dispatcher Dispatcher, sink contract.NotificationSink, secret string) *WebhookHandler {
	return &WebhookHandler{
		log:        log,
		dispatcher: dispatcher,
		sink:       sink,
		secret:     secret,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode("Listening to bot events...")
		return
	}

	if h.secret != "" && r.Header.Get(SecretHeader) != h.secret {
		h.log.Warn("Webhook call with wrong secret token", "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "malformed update", http.StatusBadRequest)
		return
	}
	if update.Message == nil {
		// Edits, joins and other update kinds are none of our business.
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := h.validate.Struct(update); err != nil {
		http.Error(w, fmt.Sprintf("invalid update: %v", err), http.StatusBadRequest)
		return
	}

	h.route(r, *update.Message)
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) route(r *http.Request, msg Message) {
	participant := msg.Chat.ParticipantID()
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	now := time.Now().UTC()

	if !strings.HasPrefix(text, "/") {
		h.dispatcher.Dispatch(domain.TextMessage{Participant: participant, Content: text, At: now})
		return
	}

	switch command(text) {
	case "/start":
		h.dispatcher.Dispatch(domain.RequestAvailable{Participant: participant, At: now})
	case "/search":
		h.dispatcher.Dispatch(domain.RequestMatch{Participant: participant, At: now})
	case "/stop":
		h.dispatcher.Dispatch(domain.RequestStop{Participant: participant, At: now})
	case "/about":
		h.replyStatic(r, participant, aboutText)
	default:
		h.replyStatic(r, participant, unknownCommandText)
	}
}

func (h *WebhookHandler) replyStatic(r *http.Request, to domain.ParticipantID, text string) {
	if err := h.sink.Send(r.Context(), to, text); err != nil {
		h.log.Warn("Static reply not delivered", "to", to, "error", err)
	}
}

// command isolates the command word: arguments and the @botname suffix of
// group chats are ignored.
func command(text string) string {
	word := strings.Fields(text)[0]
	if at := strings.Index(word, "@"); at > 0 {
		word = word[:at]
	}
	return strings.ToLower(word)
}

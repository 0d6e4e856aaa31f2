package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	"github.com/itzme-challa/TalkStranger-chatbot/repositories"
	"github.com/itzme-challa/TalkStranger-chatbot/runtime"
	"github.com/itzme-challa/TalkStranger-chatbot/services"
	"github.com/itzme-challa/TalkStranger-chatbot/sink"
	"github.com/itzme-challa/TalkStranger-chatbot/telegram"
)

// BaseWebhookSuite boots the full pairing stack against an in-memory
// store and an httptest server standing in for the public webhook
// endpoint. Delivery goes through the local path: each participant
// subscribes a transcript in the registry instead of a Bot API chat.
type BaseWebhookSuite struct {
	suite.Suite
	Config Config

	db       *badger.DB
	registry *runtime.Registry
	server   *httptest.Server
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWebhookSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// SetupTest boots a fresh stack so scenarios never share store state.
func (s *BaseWebhookSuite) SetupTest() {
	var err error
	s.db, err = badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil))
	s.Require().NoError(err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.registry = runtime.NewRegistry()
	local := sink.NewLocalSink(s.registry)

	directory := repositories.NewParticipantRepository(s.db, log)
	conversations := repositories.NewConversationRepository(s.db, log, s.Config.PendingLease)
	matcher := services.NewMatchService(directory, conversations, log, 3)
	relay := services.NewRelayService(conversations, local, log)

	dispatcher := runtime.NewDispatcher(log, matcher, relay, local, nil, 1, 16, s.Config.WaitTimeout)
	handler := telegram.NewWebhookHandler(log, synchronousDispatcher{dispatcher}, local, s.Config.WebhookSecret)
	s.server = httptest.NewServer(handler)
}

func (s *BaseWebhookSuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
	}
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}
}

// synchronousDispatcher handles each command inline instead of queueing
// it, so scenarios observe outcomes as soon as the webhook call returns.
type synchronousDispatcher struct {
	inner *runtime.Dispatcher
}

func (d synchronousDispatcher) Dispatch(cmd domain.Command) {
	d.inner.Handle(context.Background(), cmd)
}

// Connect registers a participant's transcript, mimicking an open chat.
func (s *BaseWebhookSuite) Connect(chatID int64) *sink.Transcript {
	id := domain.ParticipantID(strconv.FormatInt(chatID, 10))
	transcript := sink.NewTranscript(id)
	s.registry.Subscribe(id, transcript)
	return transcript
}

// Send posts one Telegram-shaped update to the webhook endpoint.
func (s *BaseWebhookSuite) Send(chatID int64, text string) {
	s.T().Helper()

	update := telegram.Update{
		UpdateID: chatID,
		Message: &telegram.Message{
			MessageID: 1,
			Chat:      telegram.Chat{ID: chatID},
			Text:      text,
		},
	}
	body, err := json.Marshal(update)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.server.URL, bytes.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(telegram.SecretHeader, s.Config.WebhookSecret)

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
}

// LastReceived asserts the newest delivered message contains fragment.
func (s *BaseWebhookSuite) LastReceived(transcript *sink.Transcript, fragment string) {
	s.T().Helper()

	messages := transcript.Received()
	s.Require().NotEmpty(messages, "no message delivered to %s", transcript.Owner)
	s.Require().Contains(messages[len(messages)-1], fragment)
}

// Step prints a colorized scenario header in logs.
func (s *BaseWebhookSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// received reports whether any delivered message contains fragment.
func received(transcript *sink.Transcript, fragment string) bool {
	for _, msg := range transcript.Received() {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

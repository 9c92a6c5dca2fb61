package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahlastore/assistant-server-go/internal/model"
)

type fakeMessenger struct {
	sent    []string
	actions []string
	typing  int
}

func (f *fakeMessenger) Send(ctx context.Context, to, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeMessenger) SendTyping(ctx context.Context, to string) error {
	f.typing++
	return nil
}

func (f *fakeMessenger) SendActionPrompt(ctx context.Context, to, text, action string) error {
	f.sent = append(f.sent, text)
	f.actions = append(f.actions, action)
	return nil
}

type fakeClassifier struct {
	label string
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (string, error) {
	f.calls++
	return f.label, f.err
}

type fakeResponder struct {
	reply string
	err   error
	calls int
}

func (f *fakeResponder) Converse(ctx context.Context, text string, history []model.Turn) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeSpeech struct {
	audio []byte
	err   error
	calls int
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.calls++
	return f.audio, f.err
}

type fakeCatalog struct {
	products      []model.Product
	productsErr   error
	order         *model.OrderStatus
	orderErr      error
	findCalls     int
	getOrderCalls int
	lastOrderID   string
}

func (f *fakeCatalog) FindProduct(ctx context.Context, query string) ([]model.Product, error) {
	f.findCalls++
	return f.products, f.productsErr
}

func (f *fakeCatalog) GetOrder(ctx context.Context, id string) (*model.OrderStatus, error) {
	f.getOrderCalls++
	f.lastOrderID = id
	return f.order, f.orderErr
}

type fakeSocial struct {
	post  *model.SocialPost
	err   error
	calls int
}

func (f *fakeSocial) GetPostDetails(ctx context.Context, url string) (*model.SocialPost, error) {
	f.calls++
	return f.post, f.err
}

type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) Upload(ctx context.Context, data []byte, name string) (string, error) {
	f.calls++
	return f.url, f.err
}

type routerFixture struct {
	router     *Router
	sessions   *SessionStore
	gate       *HandoffGate
	messenger  *fakeMessenger
	classifier *fakeClassifier
	responder  *fakeResponder
	speech     *fakeSpeech
	catalog    *fakeCatalog
	social     *fakeSocial
	uploader   *fakeUploader
	downloader *mockDownloader
	transcribe *mockTranscriber
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		sessions:   NewSessionStore(time.Hour, 10, nil),
		gate:       NewHandoffGate(),
		messenger:  &fakeMessenger{},
		classifier: &fakeClassifier{label: "general"},
		responder:  &fakeResponder{reply: "أهلاً بك!"},
		speech:     &fakeSpeech{audio: []byte("mp3")},
		catalog:    &fakeCatalog{},
		social:     &fakeSocial{},
		uploader:   &fakeUploader{url: "https://cdn.example/reply.mp3"},
		downloader: &mockDownloader{data: []byte("ogg")},
		transcribe: &mockTranscriber{},
	}

	f.router = NewRouter(RouterDeps{
		Sessions:   f.sessions,
		Gate:       f.gate,
		Normalizer: NewNormalizer(f.downloader, f.transcribe, &mockDescriber{}),
		Messenger:  f.messenger,
		Classifier: f.classifier,
		Responder:  f.responder,
		Speech:     f.speech,
		Catalog:    f.catalog,
		Social:     f.social,
		Uploader:   f.uploader,
	}, RouterOptions{
		HandoffTriggers: []string{"موظف", "دعم فني"},
		HandoffPause:    30 * time.Minute,
		SupportPhone:    "+966500000000",
	})

	return f
}

func textEvent(body string) model.InboundEvent {
	return model.InboundEvent{
		ID:   "msg-1",
		From: "9665xxxx111",
		Name: "عميل",
		Kind: model.EventText,
		Body: body,
	}
}

func TestHandleTurnPausedCustomerGetsWaitReply(t *testing.T) {
	f := newRouterFixture()
	f.gate.Pause("9665xxxx111", time.Hour)

	f.router.HandleTurn(context.Background(), textEvent("وين طلبي 4521؟"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, msgWaitForAgent, f.messenger.sent[0])

	// Nothing beyond the wait reply runs while paused.
	assert.Zero(t, f.classifier.calls)
	assert.Zero(t, f.catalog.getOrderCalls)
	assert.Zero(t, f.responder.calls)
}

func TestHandleTurnOrderNumberSkipsClassifier(t *testing.T) {
	f := newRouterFixture()
	f.catalog.order = &model.OrderStatus{ID: "7890", Status: "تم الشحن"}

	f.router.HandleTurn(context.Background(), textEvent("وين طلبي 7890"))

	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0], "7890")
	assert.Contains(t, f.messenger.sent[0], "تم الشحن")
	assert.Zero(t, f.classifier.calls)
	assert.Equal(t, "7890", f.catalog.lastOrderID)

	sess := f.sessions.Get(context.Background(), "9665xxxx111")
	require.NotNil(t, sess)
	assert.Equal(t, "7890", sess.Context[model.ContextLastOrderID])
}

func TestHandleTurnOrderLookupFailureSendsFallback(t *testing.T) {
	f := newRouterFixture()
	f.catalog.orderErr = errors.New("storefront down")

	f.router.HandleTurn(context.Background(), textEvent("طلبي رقم 4521"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, msgOrderLookupFailed, f.messenger.sent[0])
}

func TestHandleTurnHandoffTriggerPausesCustomer(t *testing.T) {
	f := newRouterFixture()

	f.router.HandleTurn(context.Background(), textEvent("أبغى أكلم موظف"))

	assert.True(t, f.gate.IsPaused("9665xxxx111"))
	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, msgHandoffAck, f.messenger.sent[0])
	require.Len(t, f.messenger.actions, 1)
	assert.Equal(t, "tel:+966500000000", f.messenger.actions[0])
	assert.Zero(t, f.classifier.calls)

	// The next turn hits the gate, not routing.
	f.router.HandleTurn(context.Background(), textEvent("وين الرد؟"))
	require.Len(t, f.messenger.sent, 2)
	assert.Equal(t, msgWaitForAgent, f.messenger.sent[1])
	assert.Zero(t, f.classifier.calls)
}

func TestHandleTurnOrderNumberOutranksHandoffTrigger(t *testing.T) {
	f := newRouterFixture()
	f.catalog.order = &model.OrderStatus{ID: "4521", Status: "قيد التجهيز"}

	f.router.HandleTurn(context.Background(), textEvent("موظف وين طلبي 4521"))

	// The order gets resolved; the trigger word alone does not escalate.
	assert.False(t, f.gate.IsPaused("9665xxxx111"))
	assert.Equal(t, 1, f.catalog.getOrderCalls)
	assert.Equal(t, "4521", f.catalog.lastOrderID)
	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0], "قيد التجهيز")
	assert.Empty(t, f.messenger.actions)
}

func TestHandleTurnOrderQueryWithoutNumberAsksForIt(t *testing.T) {
	f := newRouterFixture()
	f.classifier.label = "order_query"

	f.router.HandleTurn(context.Background(), textEvent("وين طلبي؟"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, msgAskOrderNumber, f.messenger.sent[0])
	assert.Zero(t, f.catalog.getOrderCalls)
}

func TestHandleTurnOrderQueryReusesSessionContext(t *testing.T) {
	f := newRouterFixture()
	f.classifier.label = "order_query"
	f.catalog.order = &model.OrderStatus{ID: "4521", Status: "قيد التجهيز"}
	f.sessions.SetContext(context.Background(), "9665xxxx111", model.ContextLastOrderID, "4521")

	f.router.HandleTurn(context.Background(), textEvent("وين طلبي؟"))

	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0], "4521")
	assert.Equal(t, "4521", f.catalog.lastOrderID)
}

func TestHandleTurnProductQueryListsResults(t *testing.T) {
	f := newRouterFixture()
	f.classifier.label = "product_query"
	f.catalog.products = []model.Product{
		{Name: "حذاء رياضي", Price: 199, Currency: "SAR", URL: "https://store.example/p/1"},
	}

	f.router.HandleTurn(context.Background(), textEvent("عندكم حذاء رياضي؟"))

	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0], "حذاء رياضي")
	assert.Contains(t, f.messenger.sent[0], "199")
	assert.Equal(t, 1, f.catalog.findCalls)
}

func TestHandleTurnProductQueryNoResultsSuggestsAlternatives(t *testing.T) {
	f := newRouterFixture()
	f.classifier.label = "product_query"
	f.responder.reply = "جرب الحذاء الأزرق بدلاً منه"

	f.router.HandleTurn(context.Background(), textEvent("عندكم حذاء أحمر؟"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "جرب الحذاء الأزرق بدلاً منه", f.messenger.sent[0])
	assert.Equal(t, 1, f.responder.calls)
}

func TestHandleTurnComplaintGetsFixedAck(t *testing.T) {
	f := newRouterFixture()
	f.classifier.label = "complaint"

	f.router.HandleTurn(context.Background(), textEvent("الطلب وصل مكسور"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, msgComplaintAck, f.messenger.sent[0])
	assert.Zero(t, f.responder.calls)
}

func TestHandleTurnSocialLinkRoutesToLookup(t *testing.T) {
	f := newRouterFixture()
	f.social.post = &model.SocialPost{
		Caption:   "عرض خاص على الأحذية",
		Permalink: "https://store.example/p/shoes",
	}

	f.router.HandleTurn(context.Background(), textEvent("كم سعر هذا؟ instagram.com/p/abc123"))

	assert.Equal(t, 1, f.social.calls)
	assert.Zero(t, f.classifier.calls)
	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0], "عرض خاص على الأحذية")
}

func TestHandleTurnSocialLookupFailureSendsFallback(t *testing.T) {
	f := newRouterFixture()
	f.social.err = errors.New("api down")

	f.router.HandleTurn(context.Background(), textEvent("facebook.com/xyz/123"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, msgSocialLookupFailed, f.messenger.sent[0])
	// Digits inside the link path are not an order number.
	assert.Zero(t, f.catalog.getOrderCalls)
}

func TestHandleTurnGeneralUsesResponder(t *testing.T) {
	f := newRouterFixture()
	f.responder.reply = "نفتح من 9 صباحاً حتى 11 مساءً"

	f.router.HandleTurn(context.Background(), textEvent("متى تفتحون؟"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "نفتح من 9 صباحاً حتى 11 مساءً", f.messenger.sent[0])
	assert.Equal(t, 1, f.classifier.calls)
}

func TestHandleTurnClassifierFailureDefaultsToGeneral(t *testing.T) {
	f := newRouterFixture()
	f.classifier.err = errors.New("model timeout")

	f.router.HandleTurn(context.Background(), textEvent("متى تفتحون؟"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, f.responder.reply, f.messenger.sent[0])
}

func TestHandleTurnResponderFailureSendsFallback(t *testing.T) {
	f := newRouterFixture()
	f.responder.err = errors.New("model down")

	f.router.HandleTurn(context.Background(), textEvent("متى تفتحون؟"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, msgGeneralFallback, f.messenger.sent[0])
}

func TestHandleTurnUnknownLabelDefaultsToGeneral(t *testing.T) {
	f := newRouterFixture()
	f.classifier.label = "chitchat"

	f.router.HandleTurn(context.Background(), textEvent("كيفك؟"))

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, f.responder.reply, f.messenger.sent[0])
	assert.Equal(t, 1, f.responder.calls)
}

func voiceEvent() model.InboundEvent {
	return model.InboundEvent{
		ID:       "msg-2",
		From:     "9665xxxx111",
		Kind:     model.EventVoice,
		MediaURL: "https://media.example/voice.ogg",
	}
}

func TestHandleTurnVoiceReplyCarriesAudioLink(t *testing.T) {
	f := newRouterFixture()
	f.transcribe.text = "متى تفتحون؟"
	f.responder.reply = "نفتح من 9 صباحاً"

	f.router.HandleTurn(context.Background(), voiceEvent())

	require.Len(t, f.messenger.sent, 1)
	parts := strings.SplitN(f.messenger.sent[0], "\n\n", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "https://cdn.example/reply.mp3", parts[0])
	assert.Equal(t, "نفتح من 9 صباحاً", parts[1])
	assert.Equal(t, 1, f.speech.calls)
	assert.Equal(t, 1, f.uploader.calls)
}

func TestHandleTurnVoiceSynthesisFailureFallsBackToText(t *testing.T) {
	f := newRouterFixture()
	f.transcribe.text = "متى تفتحون؟"
	f.responder.reply = "نفتح من 9 صباحاً"
	f.speech.err = errors.New("tts down")

	f.router.HandleTurn(context.Background(), voiceEvent())

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "نفتح من 9 صباحاً", f.messenger.sent[0])
	assert.Zero(t, f.uploader.calls)
}

func TestHandleTurnVoiceTranscriptionFailureGetsFixedReply(t *testing.T) {
	f := newRouterFixture()
	f.downloader.err = errors.New("gateway 404")

	f.router.HandleTurn(context.Background(), voiceEvent())

	require.Len(t, f.messenger.sent, 1)
	// Fixed reply, still delivered as voice if synthesis works.
	assert.Contains(t, f.messenger.sent[0], msgVoiceTrouble)
	assert.Zero(t, f.classifier.calls)
}

func TestHandleTurnRecordsHistory(t *testing.T) {
	f := newRouterFixture()
	f.responder.reply = "أهلاً!"

	f.router.HandleTurn(context.Background(), textEvent("مرحبا"))

	sess := f.sessions.Get(context.Background(), "9665xxxx111")
	require.NotNil(t, sess)
	require.Len(t, sess.History, 2)
	assert.Equal(t, model.RoleCustomer, sess.History[0].Role)
	assert.Equal(t, "مرحبا", sess.History[0].Content)
	assert.Equal(t, model.RoleAssistant, sess.History[1].Role)
	assert.Equal(t, "أهلاً!", sess.History[1].Content)
}

func TestHandleTurnMalformedEventIsDropped(t *testing.T) {
	f := newRouterFixture()

	f.router.HandleTurn(context.Background(), model.InboundEvent{
		From: "9665xxxx111",
		Kind: model.EventText,
		Body: "   ",
	})

	assert.Empty(t, f.messenger.sent)
	assert.Zero(t, f.classifier.calls)
}

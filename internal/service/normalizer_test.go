package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sahlastore/assistant-server-go/internal/errors"
	"github.com/sahlastore/assistant-server-go/internal/model"
)

type mockDownloader struct {
	data  []byte
	err   error
	calls int
}

func (m *mockDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	return m.data, m.err
}

type mockTranscriber struct {
	text  string
	err   error
	calls int
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audio []byte, fileName string) (string, error) {
	m.calls++
	return m.text, m.err
}

type mockDescriber struct {
	text  string
	err   error
	calls int
}

func (m *mockDescriber) Describe(ctx context.Context, imageURL string) (string, error) {
	m.calls++
	return m.text, m.err
}

func TestExtractOrderID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"arabic sentence with number", "طلبي رقم 4521 وين وصل", "4521"},
		{"arabic-indic digits", "طلبي رقم ٧٨٩٠", "7890"},
		{"three digits", "رقم 123", "123"},
		{"six digits", "رقم 123456", "123456"},
		{"two digits too short", "عندي 12 سؤال", ""},
		{"seven digits too long", "1234567", ""},
		{"no digits", "وين طلبي", ""},
		{"first match wins", "456 ثم 789", "456"},
		{"digits inside url ignored", "شوف https://example.com/p/12345", ""},
		{"digits inside social url ignored", "facebook.com/xyz/123", ""},
		{"digits outside url still match", "طلبي 4521 هنا https://example.com/p/999", "4521"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractOrderID(tt.text))
		})
	}
}

func TestNormalizeTextExtractsOrderID(t *testing.T) {
	n := NewNormalizer(nil, nil, nil)

	input, err := n.Normalize(context.Background(), model.InboundEvent{
		From: "9665xxxx111",
		Kind: model.EventText,
		Body: "وين وصل طلبي رقم 4521؟",
	})

	require.NoError(t, err)
	assert.Equal(t, model.MediaText, input.MediaKind)
	assert.Equal(t, "4521", input.OrderID)
}

func TestNormalizeTextTagsSocialLinks(t *testing.T) {
	n := NewNormalizer(nil, nil, nil)

	tests := []struct {
		name     string
		body     string
		kind     model.MediaKind
		platform model.SocialPlatform
	}{
		{"instagram", "شفت هذا https://instagram.com/p/abc123", model.MediaLink, model.PlatformInstagram},
		{"facebook without scheme", "facebook.com/xyz/123 كم سعره؟", model.MediaLink, model.PlatformFacebook},
		{"generic url", "شوف https://example.com/page", model.MediaGeneralLink, ""},
		{"plain text", "مرحبا", model.MediaText, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := n.Normalize(context.Background(), model.InboundEvent{
				From: "9665xxxx111",
				Kind: model.EventText,
				Body: tt.body,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, input.MediaKind)
			assert.Equal(t, tt.platform, input.Platform)
			if tt.kind == model.MediaLink {
				assert.Contains(t, input.LinkURL, "https://")
			}
		})
	}
}

func TestNormalizeLinkDigitsAreNotOrderNumbers(t *testing.T) {
	n := NewNormalizer(nil, nil, nil)

	tests := []struct {
		name        string
		body        string
		kind        model.MediaKind
		wantOrderID string
	}{
		{"social link with digit path", "facebook.com/xyz/123", model.MediaLink, ""},
		{"generic link with digit path", "شوف https://example.com/item/456", model.MediaGeneralLink, ""},
		{"order number next to a link", "طلبي 4521 شفته هنا https://example.com/p/999", model.MediaGeneralLink, "4521"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := n.Normalize(context.Background(), model.InboundEvent{
				From: "9665xxxx111",
				Kind: model.EventText,
				Body: tt.body,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, input.MediaKind)
			assert.Equal(t, tt.wantOrderID, input.OrderID)
		})
	}
}

func TestNormalizeRejectsMalformedEvents(t *testing.T) {
	n := NewNormalizer(nil, nil, nil)

	tests := []struct {
		name string
		ev   model.InboundEvent
	}{
		{"missing sender", model.InboundEvent{Kind: model.EventText, Body: "hi"}},
		{"empty text", model.InboundEvent{From: "x", Kind: model.EventText, Body: "   "}},
		{"image without media", model.InboundEvent{From: "x", Kind: model.EventImage}},
		{"voice without media", model.InboundEvent{From: "x", Kind: model.EventVoice}},
		{"unknown kind", model.InboundEvent{From: "x", Kind: "video", Body: "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(context.Background(), tt.ev)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMalformedEvent))
		})
	}
}

func TestNormalizeVoiceTranscribes(t *testing.T) {
	downloader := &mockDownloader{data: []byte("ogg-bytes")}
	transcriber := &mockTranscriber{text: "وين طلبي رقم 7890"}
	n := NewNormalizer(downloader, transcriber, nil)

	input, err := n.Normalize(context.Background(), model.InboundEvent{
		From:     "9665xxxx111",
		Kind:     model.EventVoice,
		MediaURL: "https://media.example/voice.ogg",
	})

	require.NoError(t, err)
	assert.Equal(t, model.MediaVoice, input.MediaKind)
	assert.Equal(t, "وين طلبي رقم 7890", input.Utterance)
	assert.Equal(t, "7890", input.OrderID)
	assert.Equal(t, 1, downloader.calls)
	assert.Equal(t, 1, transcriber.calls)
}

func TestNormalizeVoiceDownloadFailureLeavesUtteranceEmpty(t *testing.T) {
	downloader := &mockDownloader{err: errors.New("boom")}
	transcriber := &mockTranscriber{}
	n := NewNormalizer(downloader, transcriber, nil)

	input, err := n.Normalize(context.Background(), model.InboundEvent{
		From:     "9665xxxx111",
		Kind:     model.EventVoice,
		MediaURL: "https://media.example/voice.ogg",
	})

	// Acquisition failures are not fatal: the turn continues with an empty
	// utterance and the router answers with the fixed voice reply.
	require.NoError(t, err)
	assert.Equal(t, model.MediaVoice, input.MediaKind)
	assert.Empty(t, input.Utterance)
	assert.Zero(t, transcriber.calls)
}

func TestNormalizeImageDescribes(t *testing.T) {
	describer := &mockDescriber{text: "حذاء رياضي أبيض"}
	n := NewNormalizer(nil, nil, describer)

	input, err := n.Normalize(context.Background(), model.InboundEvent{
		From:     "9665xxxx111",
		Kind:     model.EventImage,
		Body:     "عندكم مثله؟",
		MediaURL: "https://media.example/img.jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, model.MediaImage, input.MediaKind)
	assert.Contains(t, input.Utterance, "عندكم مثله؟")
	assert.Contains(t, input.Utterance, "حذاء رياضي أبيض")
}

func TestNormalizeImageDescribeFailureUsesFallback(t *testing.T) {
	describer := &mockDescriber{err: errors.New("vision down")}
	n := NewNormalizer(nil, nil, describer)

	input, err := n.Normalize(context.Background(), model.InboundEvent{
		From:     "9665xxxx111",
		Kind:     model.EventImage,
		MediaURL: "https://media.example/img.jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, imageFallbackDescription, input.Utterance)
}

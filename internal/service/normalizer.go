package service

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/sahlastore/assistant-server-go/internal/errors"
	"github.com/sahlastore/assistant-server-go/internal/model"
	"github.com/sahlastore/assistant-server-go/internal/util"
)

// Collaborator contracts the normalizer depends on.
type (
	MediaDownloader interface {
		Download(ctx context.Context, url string) ([]byte, error)
	}
	Transcriber interface {
		Transcribe(ctx context.Context, audio []byte, fileName string) (string, error)
	}
	ImageDescriber interface {
		Describe(ctx context.Context, imageURL string) (string, error)
	}
)

var (
	// Word-bounded 3-6 digit token: the order-lookup fast path.
	orderNumberRe = regexp.MustCompile(`\b\d{3,6}\b`)

	socialLinkRe  = regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?(instagram\.com|facebook\.com)/\S+`)
	generalLinkRe = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+`)

	arabicDigits = strings.NewReplacer(
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
		"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	)
)

// Normalizer reduces heterogeneous inbound events to one textual utterance
// plus a media-kind tag. It owns media acquisition for voice notes, including
// the temporary file, which is removed on success and failure alike.
type Normalizer struct {
	downloader  MediaDownloader
	transcriber Transcriber
	describer   ImageDescriber
}

func NewNormalizer(downloader MediaDownloader, transcriber Transcriber, describer ImageDescriber) *Normalizer {
	return &Normalizer{
		downloader:  downloader,
		transcriber: transcriber,
		describer:   describer,
	}
}

func (n *Normalizer) Normalize(ctx context.Context, ev model.InboundEvent) (model.NormalizedInput, error) {
	if ev.From == "" {
		return model.NormalizedInput{}, apperrors.MalformedEvent("missing sender")
	}

	input := model.NormalizedInput{
		From: ev.From,
		Name: ev.Name,
	}

	switch ev.Kind {
	case model.EventText:
		if strings.TrimSpace(ev.Body) == "" {
			return model.NormalizedInput{}, apperrors.MalformedEvent("empty text body")
		}
		input.Utterance = ev.Body
		input.MediaKind = model.MediaText
		n.tagLinks(&input)
		if input.MediaKind != model.MediaLink {
			input.OrderID = ExtractOrderID(input.Utterance)
		}

	case model.EventImage:
		if ev.MediaURL == "" {
			return model.NormalizedInput{}, apperrors.MalformedEvent("image event without media reference")
		}
		input.MediaKind = model.MediaImage
		description, err := n.describer.Describe(ctx, ev.MediaURL)
		if err != nil {
			log.Warn().Err(err).Str("customer", util.MaskPhone(ev.From)).Msg("image description failed")
			description = imageFallbackDescription
		}
		input.Utterance = description
		if ev.Body != "" {
			input.Utterance = ev.Body + "\n" + description
		}

	case model.EventVoice:
		if ev.MediaURL == "" {
			return model.NormalizedInput{}, apperrors.MalformedEvent("voice event without media reference")
		}
		input.MediaKind = model.MediaVoice
		text, err := n.transcribeVoice(ctx, ev.MediaURL)
		if err != nil {
			// Leave the utterance empty; the router answers voice turns it
			// could not hear with a fixed reply instead of classifying noise.
			log.Warn().Err(err).Str("customer", util.MaskPhone(ev.From)).Msg("voice transcription failed")
		} else {
			input.Utterance = text
			input.OrderID = ExtractOrderID(text)
		}

	default:
		return model.NormalizedInput{}, apperrors.MalformedEvent(fmt.Sprintf("unknown event kind %q", ev.Kind))
	}

	return input, nil
}

// transcribeVoice downloads the audio, stages it in a scoped temp file and
// hands it to the transcription collaborator.
func (n *Normalizer) transcribeVoice(ctx context.Context, mediaURL string) (string, error) {
	audio, err := n.downloader.Download(ctx, mediaURL)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "voice-*.ogg")
	if err != nil {
		return "", apperrors.MediaAcquisitionFailed(err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(audio); err != nil {
		return "", apperrors.MediaAcquisitionFailed(err)
	}

	return n.transcriber.Transcribe(ctx, audio, tmp.Name())
}

func (n *Normalizer) tagLinks(input *model.NormalizedInput) {
	if m := socialLinkRe.FindStringSubmatch(input.Utterance); m != nil {
		input.MediaKind = model.MediaLink
		input.LinkURL = m[0]
		if !strings.HasPrefix(strings.ToLower(input.LinkURL), "http") {
			input.LinkURL = "https://" + input.LinkURL
		}
		switch strings.ToLower(m[1]) {
		case "instagram.com":
			input.Platform = model.PlatformInstagram
		case "facebook.com":
			input.Platform = model.PlatformFacebook
		}
		return
	}

	if m := generalLinkRe.FindString(input.Utterance); m != "" {
		input.MediaKind = model.MediaGeneralLink
		input.LinkURL = m
	}
}

// ExtractOrderID returns the first word-bounded 3-6 digit token in the text,
// after folding Arabic-Indic digits to ASCII. URLs are blanked first so digit
// runs inside a link path never read as an order number. Empty when none is
// present.
func ExtractOrderID(text string) string {
	text = arabicDigits.Replace(text)
	text = socialLinkRe.ReplaceAllString(text, " ")
	text = generalLinkRe.ReplaceAllString(text, " ")
	return orderNumberRe.FindString(text)
}

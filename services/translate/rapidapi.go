package translatesvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
)

type rapidAPIService struct {
	apiKey   string
	apiHost  string
	apiURL   string
	fallback bool
	client   *http.Client
	logger   core.Logger
}

var _ core.Translator = (*rapidAPIService)(nil)

// NewRapidAPIService translates text through the Deep Translate API on
// RapidAPI. An unconfigured service passes text through unchanged, and when
// the fallback is enabled provider failures degrade to the original text so
// SMS composition keeps working in development and during provider outages.
func NewRapidAPIService(conf *core.Config, logger core.Logger) core.Translator {
	apiURL := conf.Translate.APIURL
	if apiURL == "" {
		apiURL = fmt.Sprintf("https://%s/language/translate/v2", conf.Translate.APIHost)
	}
	return &rapidAPIService{
		apiKey:   conf.Translate.APIKey,
		apiHost:  conf.Translate.APIHost,
		apiURL:   apiURL,
		fallback: conf.Notify.FallbackOnProviderError,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	Data struct {
		Translations struct {
			TranslatedText json.RawMessage `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (svc *rapidAPIService) Translate(ctx context.Context, text, source, target string) (string, error) {
	if svc.apiKey == "" {
		svc.logger.Debug("translation not configured, passing text through")
		return text, nil
	}
	if source == target {
		return text, nil
	}

	body, err := json.Marshal(translateRequest{Q: text, Source: source, Target: target})
	if err != nil {
		return svc.fail(text, errors.Wrap(err, "marshaling translate request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.apiURL, bytes.NewReader(body))
	if err != nil {
		return svc.fail(text, errors.Wrap(err, "creating translate request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-rapidapi-key", svc.apiKey)
	req.Header.Set("x-rapidapi-host", svc.apiHost)

	res, err := svc.client.Do(req)
	if err != nil {
		return svc.fail(text, errors.Wrap(err, "calling translate API"))
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return svc.fail(text, errors.Errorf("translate API returned status %d", res.StatusCode))
	}

	var tr translateResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return svc.fail(text, errors.Wrap(err, "decoding translate response"))
	}

	translated := decodeTranslatedText(tr.Data.Translations.TranslatedText)
	if translated == "" {
		return svc.fail(text, errors.New("translate API returned an empty translation"))
	}
	return translated, nil
}

// fail degrades a provider failure to the original text when the fallback is
// enabled, otherwise surfaces the error.
func (svc *rapidAPIService) fail(text string, err error) (string, error) {
	if svc.fallback {
		svc.logger.Warn(fmt.Sprintf("translation failed, falling back to original text: %v", err))
		return text, nil
	}
	return "", err
}

// decodeTranslatedText handles both shapes the API returns: a plain string
// and a single-element array.
func decodeTranslatedText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

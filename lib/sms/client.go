package smsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"org-portal-backend/config"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("sms client is not configured")

type Provider interface {
	Send(ctx context.Context, phone, msg string) error
}

var Instance Provider

func Connect() {
	Instance = New(config.Conf.Sms.Url, config.Conf.Sms.ApiKey, config.Conf.Sms.Sender)
}

func New(url, apiKey, sender string) Provider {
	return &impl{
		url:    url,
		apiKey: apiKey,
		sender: sender,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type impl struct {
	url    string
	apiKey string
	sender string
	client *http.Client
}

type sendRequest struct {
	Sender  string `json:"sender"`
	To      string `json:"to"`
	Message string `json:"message"`
}

func (i impl) Send(ctx context.Context, phone, msg string) error {
	logger := log.WithField("recipient", phone)
	if i.url == "" || i.apiKey == "" {
		logger.Warn("sms not sent, client is not configured")
		return ErrNotConfigured
	}
	if phone == "" {
		return errors.New("empty recipient")
	}
	body, err := json.Marshal(sendRequest{Sender: i.sender, To: phone, Message: msg})
	if err != nil {
		return errors.Wrap(err, "sms request marshal failed")
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, i.url, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrap(err, "sms request build failed")
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+i.apiKey)
	response, err := i.client.Do(r)
	if err != nil {
		logger.WithError(err).Error("sms send failed")
		return errors.Wrap(err, "sms send failed")
	}
	defer response.Body.Close()
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		logger.Info("sms sent")
		return nil
	}
	responseBody, _ := io.ReadAll(response.Body)
	logger.
		WithField("status_code", response.StatusCode).
		WithField("response_body", string(responseBody)).
		Error("sms gateway returned an error")
	return errors.Errorf("sms gateway status %v", response.StatusCode)
}

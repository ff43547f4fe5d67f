package whatsappclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"org-portal-backend/config"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("whatsapp client is not configured")

type Provider interface {
	SendTextMessage(ctx context.Context, recipient, msg string) error
}

var Instance Provider

func Connect() {
	Instance = New(
		config.Conf.WhatsApp.BaseUrl,
		config.Conf.WhatsApp.APIVersion,
		config.Conf.WhatsApp.AccessToken,
		config.Conf.WhatsApp.PhoneNumberID,
	)
}

func New(baseUrl, apiVersion, accessToken, phoneNumberID string) Provider {
	return &impl{
		baseUrl:       strings.TrimRight(baseUrl, "/"),
		apiVersion:    apiVersion,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

type impl struct {
	baseUrl       string
	apiVersion    string
	accessToken   string
	phoneNumberID string
	client        *http.Client
}

type textBody struct {
	Body string `json:"body"`
}

type messageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (i impl) SendTextMessage(ctx context.Context, recipient, msg string) error {
	logger := log.WithField("recipient", recipient)
	if i.accessToken == "" || i.phoneNumberID == "" {
		logger.Warn("whatsapp message not sent, client is not configured")
		return ErrNotConfigured
	}
	if recipient == "" {
		return errors.New("empty recipient")
	}
	body, err := json.Marshal(messageRequest{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(recipient, "+"),
		Type:             "text",
		Text:             textBody{Body: msg},
	})
	if err != nil {
		return errors.Wrap(err, "whatsapp request marshal failed")
	}
	url := fmt.Sprintf("%v/%v/%v/messages", i.baseUrl, i.apiVersion, i.phoneNumberID)
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrap(err, "whatsapp request build failed")
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+i.accessToken)

	response, err := i.client.Do(r)
	if err != nil {
		logger.WithError(err).Error("whatsapp send failed")
		return errors.Wrap(err, "whatsapp send failed")
	}
	defer response.Body.Close()
	responseBody, _ := io.ReadAll(response.Body)
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		logger.Info("whatsapp message sent")
		return nil
	}
	gErr := graphError{}
	_ = json.Unmarshal(responseBody, &gErr)
	logger.
		WithField("status_code", response.StatusCode).
		WithField("response_body", string(responseBody)).
		Error("whatsapp api returned an error")
	if gErr.Error.Message != "" {
		return errors.Errorf("whatsapp api error %v: %v", gErr.Error.Code, gErr.Error.Message)
	}
	return errors.Errorf("whatsapp api status %v", response.StatusCode)
}

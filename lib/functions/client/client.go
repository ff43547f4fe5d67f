package functionsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"org-portal-backend/config"
	workspaceapimodels "org-portal-backend/models/api/workspace"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const KeyHeader = "X-Function-Key"

// Error carries the message a function returned with a failed call
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

type Provider interface {
	Invoke(ctx context.Context, name string, request, response interface{}) error
	DeleteWorkspace(ctx context.Context, request workspaceapimodels.DeleteFunctionRequest) error
}

var Instance Provider

func NewProvider() {
	Instance = New(config.Conf.Functions.BaseUrl, config.Conf.Functions.ServiceKey)
}

func New(baseUrl, serviceKey string) Provider {
	return &impl{
		baseUrl:    strings.TrimRight(baseUrl, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type impl struct {
	baseUrl    string
	serviceKey string
	client     *http.Client
}

func (i impl) DeleteWorkspace(ctx context.Context, request workspaceapimodels.DeleteFunctionRequest) error {
	resp := workspaceapimodels.DeleteFunctionResponse{}
	if err := i.Invoke(ctx, "delete-workspace", request, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &Error{StatusCode: http.StatusOK, Message: resp.Error}
	}
	return nil
}

func (i impl) Invoke(ctx context.Context, name string, request, response interface{}) error {
	logger := log.WithField("function", name)
	body, err := json.Marshal(request)
	if err != nil {
		return errors.Wrap(err, "function request marshal failed")
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseUrl+"/"+name, bytes.NewBuffer(body))
	if err != nil {
		return errors.Wrap(err, "function request build failed")
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(KeyHeader, i.serviceKey)
	return i.sendRequest(logger, r, response)
}

func (i impl) sendRequest(logger *log.Entry, r *http.Request, resp interface{}) error {
	response, err := i.client.Do(r)
	if err != nil {
		logger.WithError(err).Error("function call failed")
		return errors.Wrap(err, "function call failed")
	}
	defer response.Body.Close()
	responseBody, _ := io.ReadAll(response.Body)
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		if resp != nil && len(responseBody) != 0 {
			if err = json.Unmarshal(responseBody, resp); err != nil {
				return errors.Wrap(err, "function response unmarshal failed")
			}
		}
		return nil
	}
	logger.
		WithField("status_code", response.StatusCode).
		WithField("response_body", string(responseBody)).
		Error("function returned an error")
	return &Error{StatusCode: response.StatusCode, Message: errorMessage(responseBody)}
}

// errorMessage picks the message out of {"error": ...} or {"message": ...} bodies
func errorMessage(body []byte) string {
	data := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{}
	if err := json.Unmarshal(body, &data); err == nil {
		if data.Error != "" {
			return data.Error
		}
		if data.Message != "" {
			return data.Message
		}
	}
	return ""
}
